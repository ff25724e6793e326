package cache

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	users []string
}

func (n *recordingNotifier) Notify(userID string) {
	n.mu.Lock()
	n.users = append(n.users, userID)
	n.mu.Unlock()
}

func (n *recordingNotifier) notified() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.users...)
}

func payload(t *testing.T, msg ChangeMessage) string {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return string(data)
}

func TestRedisChangeRelay_Deliver(t *testing.T) {
	notifier := &recordingNotifier{}
	relay := NewRedisChangeRelay(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), notifier,
		WithInstanceID("node-1"), WithRelayChannel("test:changes"))

	relay.deliver(payload(t, ChangeMessage{Instance: "node-2", UserID: "user-a", EventType: "SaleCreated"}))
	relay.deliver(payload(t, ChangeMessage{Instance: "node-1", UserID: "user-b"}))
	relay.deliver(payload(t, ChangeMessage{Instance: "node-2"}))
	relay.deliver("{not json")

	assert.Equal(t, []string{"user-a"}, notifier.notified())
	assert.Equal(t, "node-1", relay.InstanceID())
	assert.Equal(t, "test:changes", relay.channel)
	assert.Nil(t, relay.EventTypes())
}

func TestRedisChangeRelay_Defaults(t *testing.T) {
	relay := NewRedisChangeRelay(nil, &recordingNotifier{}, WithRelayChannel(""))
	assert.Equal(t, DefaultRelayChannel, relay.channel)
	assert.NotEmpty(t, relay.InstanceID())
	assert.NoError(t, relay.Close(), "closing a relay that never ran is a no-op")
}
