package ideation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/storage/memory"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/logging"
)

func strPtr(s string) *string { return &s }

func TestSaveKeepsUnsetFields(t *testing.T) {
	store := memory.New()
	svc := New(store, logging.Discard())
	ctx := context.Background()

	qna := []ideation.QnA{{Question: "Who?", Answer: "Students"}}
	_, err := svc.Save(ctx, "p1", &qna, nil)
	require.NoError(t, err)

	rec, err := svc.Save(ctx, "p1", nil, strPtr("A sufficiently long PRD"))
	require.NoError(t, err)
	assert.Equal(t, qna, rec.QnA, "saving a PRD must not clear Q&A")
	assert.Equal(t, "A sufficiently long PRD", rec.PRD)

	rec, err = svc.SaveQnA(ctx, "p1", []ideation.QnA{{Question: "Why?", Answer: "Waste"}})
	require.NoError(t, err)
	assert.Equal(t, "A sufficiently long PRD", rec.PRD, "saving Q&A must not clear the PRD")
	assert.Len(t, rec.QnA, 1)
}

func TestSaveRejectsShortPRD(t *testing.T) {
	store := memory.New()
	svc := New(store, logging.Discard())

	_, err := svc.Save(context.Background(), "p1", nil, strPtr("too short"))
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 0, store.Calls("UpsertIdeation"))
}

func TestSaveQnARequiresList(t *testing.T) {
	svc := New(memory.New(), logging.Discard())
	_, err := svc.SaveQnA(context.Background(), "p1", nil)
	assert.True(t, errors.IsValidation(err))
}

func TestPRD(t *testing.T) {
	svc := New(memory.New(), logging.Discard())
	ctx := context.Background()

	_, err := svc.PRD(ctx, "p1")
	assert.True(t, errors.IsNotFound(err))

	_, err = svc.SaveQnA(ctx, "p1", []ideation.QnA{})
	require.NoError(t, err)
	prd, err := svc.PRD(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "", prd)
}
