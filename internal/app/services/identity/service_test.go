package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackcrew/service_layer/internal/app/auth"
	"github.com/hackcrew/service_layer/internal/app/storage/memory"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/logging"
)

func newService(store *memory.Store) *Service {
	tokens := auth.NewManager("test-secret", time.Minute, time.Hour)
	return New(store, tokens, logging.Discard(), WithHashCost(bcrypt.MinCost))
}

func TestSignupLoginRefresh(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()

	acct, err := svc.Signup(ctx, " Ada@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", acct.Email)
	assert.NotEqual(t, "hunter22", acct.PasswordHash)

	session, err := svc.Login(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, session.Account.ID)
	assert.Equal(t, "bearer", session.Tokens.TokenType)

	pair, err := svc.Refresh(ctx, session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = svc.Refresh(ctx, session.Tokens.AccessToken)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidToken), "access tokens cannot refresh")
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newService(memory.New())
	ctx := context.Background()
	_, err := svc.Signup(ctx, "a@b.co", "pw")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "a@b.co", "pw")
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newService(memory.New())
	ctx := context.Background()
	_, err := svc.Signup(ctx, "a@b.co", "right")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "a@b.co", "wrong")
	_, unknownEmail := svc.Login(ctx, "x@b.co", "right")
	for _, err := range []error{wrongPassword, unknownEmail} {
		se := errors.GetServiceError(err)
		require.NotNil(t, se)
		assert.Equal(t, errors.ErrCodeInvalidCredentials, se.Code)
		assert.Equal(t, 401, se.HTTPStatus)
	}
}

func TestSignupValidation(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	for _, email := range []string{"", "not-an-email", "Name <a@b.co>"} {
		_, err := svc.Signup(context.Background(), email, "pw")
		assert.True(t, errors.IsValidation(err), "email %q: %v", email, err)
	}
	assert.Equal(t, 0, store.Calls("CreateAccount"))
}
