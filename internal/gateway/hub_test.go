package gateway

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/models"
)

func newTestHub() *Hub {
	return NewHub(zap.NewNop(), nil, nil)
}

func TestEnsureChannelIdempotent(t *testing.T) {
	hub := newTestHub()

	id1 := hub.EnsureChannel("lobby", models.ChannelLobby)
	id2 := hub.EnsureChannel("lobby", models.ChannelLobby)
	assert.Equal(t, id1, id2)

	meta, ok := hub.Channel(id1)
	require.True(t, ok)
	assert.Equal(t, "lobby", meta.Name)
	assert.Equal(t, models.ChannelLobby, meta.Kind)
}

func TestCreatePrivateChannel(t *testing.T) {
	hub := newTestHub()
	ownerID := uuid.New()

	id, err := hub.CreatePrivateChannel(context.Background(), ownerID, "apply-alice")
	require.NoError(t, err)

	meta, ok := hub.Channel(id)
	require.True(t, ok)
	assert.Equal(t, "apply-alice", meta.Name)
	assert.Equal(t, models.ChannelIntake, meta.Kind)
	assert.Equal(t, ownerID, meta.OwnerID)
	assert.False(t, meta.Archived)
}

func TestCreatePrivateChannelNameCollision(t *testing.T) {
	hub := newTestHub()

	id1, err := hub.CreatePrivateChannel(context.Background(), uuid.New(), "apply-alice")
	require.NoError(t, err)
	id2, err := hub.CreatePrivateChannel(context.Background(), uuid.New(), "apply-alice")
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	meta1, _ := hub.Channel(id1)
	meta2, _ := hub.Channel(id2)
	assert.Equal(t, "apply-alice", meta1.Name)
	assert.NotEqual(t, meta1.Name, meta2.Name, "second channel gets a suffixed name")
}

func TestSendToArchivedChannel(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	id, err := hub.CreatePrivateChannel(ctx, uuid.New(), "apply-alice")
	require.NoError(t, err)
	require.NoError(t, hub.Send(ctx, id, "hello"))

	require.NoError(t, hub.Archive(ctx, id))
	meta, ok := hub.Channel(id)
	require.True(t, ok)
	assert.True(t, meta.Archived)

	assert.ErrorIs(t, hub.Send(ctx, id, "too late"), ErrChannelClosed)
}

func TestPublishUnknownChannel(t *testing.T) {
	hub := newTestHub()
	err := hub.Publish(context.Background(), uuid.New(), EventChatMessage, models.ChatMessage{})
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestArchiveUnknownChannelIsNoop(t *testing.T) {
	hub := newTestHub()
	assert.NoError(t, hub.Archive(context.Background(), uuid.New()))
}
