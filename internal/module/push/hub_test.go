package push

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackhub/server/internal/shared/metrics"
)

// promauto registers against the default registry, so every test in the
// package shares one instance.
var testMetrics = metrics.New("push_test")

func newTestHub(bufferSize int) *Hub {
	return NewHub(bufferSize, testMetrics, zap.NewNop())
}

func TestHub_PublishOffline(t *testing.T) {
	h := newTestHub(0)

	err := h.Publish(context.Background(), uuid.New(), map[string]string{"type": "notification.new"})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestHub_PublishDelivers(t *testing.T) {
	h := newTestHub(0)
	userID := uuid.New()
	client := NewClient(h, nil, userID)
	h.Register(client)
	defer h.Unregister(client)

	assert.True(t, h.IsConnected(userID))

	payload := map[string]string{"type": "notification.new"}
	require.NoError(t, h.Publish(context.Background(), userID, payload))

	select {
	case data := <-client.send:
		var decoded map[string]string
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, payload, decoded)
	default:
		t.Fatal("no message queued for the session")
	}
}

func TestHub_PublishFansOutToAllSessions(t *testing.T) {
	h := newTestHub(0)
	userID := uuid.New()
	first := NewClient(h, nil, userID)
	second := NewClient(h, nil, userID)
	h.Register(first)
	h.Register(second)
	defer h.Unregister(first)
	defer h.Unregister(second)

	require.NoError(t, h.Publish(context.Background(), userID, "ping"))

	assert.Len(t, first.send, 1)
	assert.Len(t, second.send, 1)
}

func TestHub_SlowConsumerSkipped(t *testing.T) {
	h := newTestHub(1)
	userID := uuid.New()
	client := NewClient(h, nil, userID)
	h.Register(client)
	defer h.Unregister(client)

	require.NoError(t, h.Publish(context.Background(), userID, "first"))

	// The only session's buffer is full, so nothing accepts the message.
	err := h.Publish(context.Background(), userID, "second")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Len(t, client.send, 1)
}

func TestHub_Unregister(t *testing.T) {
	h := newTestHub(0)
	userID := uuid.New()
	client := NewClient(h, nil, userID)
	h.Register(client)

	h.Unregister(client)
	assert.False(t, h.IsConnected(userID))

	err := h.Publish(context.Background(), userID, "ping")
	assert.ErrorIs(t, err, ErrNotConnected)

	// A second unregister (read pump and write pump both exiting) is safe.
	h.Unregister(client)
}

func TestHub_PublishDuringUnregister(t *testing.T) {
	h := newTestHub(1)
	userID := uuid.New()

	// A publish racing a disconnect must never send on the closed channel.
	for i := 0; i < 1000; i++ {
		client := NewClient(h, nil, userID)
		h.Register(client)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				h.Publish(context.Background(), userID, "ping")
			}
		}()
		go func() {
			defer wg.Done()
			h.Unregister(client)
		}()
		wg.Wait()
	}

	assert.False(t, h.IsConnected(userID))
}

func TestHub_UnregisterKeepsOtherSessions(t *testing.T) {
	h := newTestHub(0)
	userID := uuid.New()
	first := NewClient(h, nil, userID)
	second := NewClient(h, nil, userID)
	h.Register(first)
	h.Register(second)

	h.Unregister(first)
	assert.True(t, h.IsConnected(userID))

	require.NoError(t, h.Publish(context.Background(), userID, "ping"))
	assert.Len(t, second.send, 1)

	h.Unregister(second)
	assert.False(t, h.IsConnected(userID))
}
