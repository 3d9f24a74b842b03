package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), SubjectProjectCreated, nil))
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), SubjectStageUpdated, StageUpdated{ProjectID: "p1", StageNumber: 2, StageLabel: "Research"}))
	require.NoError(t, r.Publish(context.Background(), SubjectGenerationCompleted, GenerationCompleted{Kind: "prd", ProjectID: "p1"}))

	assert.Equal(t, []string{SubjectStageUpdated, SubjectGenerationCompleted}, r.Subjects())
	assert.Equal(t, "p1", r.Events()[0].Payload.(StageUpdated).ProjectID)
}

func TestSubjectPrefix(t *testing.T) {
	assert.Equal(t, "hackcrew.project.created", NewNATSPublisher(nil, "hackcrew.").Subject(SubjectProjectCreated))
	assert.Equal(t, "project.created", NewNATSPublisher(nil, "").Subject(SubjectProjectCreated))
}

func TestNATSPublisherIntegration(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set; skipping nats publish test")
	}
	pub, err := Connect(url, "test")
	require.NoError(t, err)
	defer pub.Close()

	sub, err := pub.conn.SubscribeSync("test." + SubjectProjectCreated)
	require.NoError(t, err)
	require.NoError(t, pub.conn.Flush())

	require.NoError(t, pub.Publish(context.Background(), SubjectProjectCreated, ProjectCreated{ProjectID: "p1", TeamID: "t1", UserID: "u1"}))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	var got ProjectCreated
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "t1", got.TeamID)
}
