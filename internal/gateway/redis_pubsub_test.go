package gateway

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) handle(event string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestRedisPubSubCrossInstance(t *testing.T) {
	client := newTestRedis(t)
	logger := zap.NewNop()
	channelID := uuid.New()

	publisher := NewRedisPubSub(client, logger)
	subscriber := NewRedisPubSub(client, logger)

	var rec recorder
	cancel, err := subscriber.SubscribeChannel(channelID, rec.handle)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, publisher.PublishChannelEvent(channelID, EventChatMessage, []byte(`{"content":"hi"}`)))

	assert.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

// An instance skips its own messages: the local broadcast already
// delivered them.
func TestRedisPubSubSkipsOwnOrigin(t *testing.T) {
	client := newTestRedis(t)
	logger := zap.NewNop()
	channelID := uuid.New()

	bridge := NewRedisPubSub(client, logger)
	other := NewRedisPubSub(client, logger)

	var rec recorder
	cancel, err := bridge.SubscribeChannel(channelID, rec.handle)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, bridge.PublishChannelEvent(channelID, EventChatMessage, []byte(`{}`)))
	require.NoError(t, other.PublishChannelEvent(channelID, EventChatMessage, []byte(`{}`)))

	assert.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, rec.count(), "own message must not be re-delivered")
}

func TestRedisPubSubCancelStopsDelivery(t *testing.T) {
	client := newTestRedis(t)
	channelID := uuid.New()

	publisher := NewRedisPubSub(client, zap.NewNop())
	subscriber := NewRedisPubSub(client, zap.NewNop())

	var rec recorder
	cancel, err := subscriber.SubscribeChannel(channelID, rec.handle)
	require.NoError(t, err)
	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, publisher.PublishChannelEvent(channelID, EventChatMessage, []byte(`{}`)))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}
