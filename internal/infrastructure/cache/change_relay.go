package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultRelayChannel is the pub/sub channel shared by all instances
	DefaultRelayChannel = "inventrack:changes"
	defaultCloseTimeout = 5 * time.Second
)

// ChangeNotifier is told that a user namespace changed
type ChangeNotifier interface {
	Notify(userID string)
}

// ChangeMessage is the payload published for every committed change
type ChangeMessage struct {
	Instance  string `json:"instance"`
	UserID    string `json:"user_id"`
	EventType string `json:"event_type"`
	Timestamp int64  `json:"ts"`
}

// RedisChangeRelay fans namespace changes out to the other instances.
// Subscribed to the local event bus it publishes every event; Run listens on
// the channel and notifies the local hub about changes made elsewhere.
// Messages from this instance are skipped since the bus already delivered them.
type RedisChangeRelay struct {
	client     *redis.Client
	channel    string
	instanceID string
	notifier   ChangeNotifier
	logger     *zap.Logger

	mu       sync.Mutex
	running  bool
	cancelFn context.CancelFunc
	doneCh   chan struct{}
}

// RedisChangeRelayOption configures the relay
type RedisChangeRelayOption func(*RedisChangeRelay)

// WithRelayChannel sets the pub/sub channel
func WithRelayChannel(channel string) RedisChangeRelayOption {
	return func(r *RedisChangeRelay) {
		if channel != "" {
			r.channel = channel
		}
	}
}

// WithRelayLogger sets the relay logger
func WithRelayLogger(logger *zap.Logger) RedisChangeRelayOption {
	return func(r *RedisChangeRelay) {
		r.logger = logger
	}
}

// WithInstanceID overrides the generated instance ID
func WithInstanceID(id string) RedisChangeRelayOption {
	return func(r *RedisChangeRelay) {
		r.instanceID = id
	}
}

// NewRedisChangeRelay creates a relay on a shared client; the caller keeps ownership of the client
func NewRedisChangeRelay(client *redis.Client, notifier ChangeNotifier, opts ...RedisChangeRelayOption) *RedisChangeRelay {
	r := &RedisChangeRelay{
		client:     client,
		channel:    DefaultRelayChannel,
		instanceID: uuid.NewString(),
		notifier:   notifier,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InstanceID identifies this process on the channel
func (r *RedisChangeRelay) InstanceID() string {
	return r.instanceID
}

// Handle implements shared.EventHandler by publishing the change
func (r *RedisChangeRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	if event.UserID() == "" {
		return nil
	}
	return r.Publish(ctx, ChangeMessage{
		UserID:    event.UserID(),
		EventType: event.EventType(),
	})
}

// EventTypes implements shared.EventHandler; the relay forwards every event
func (r *RedisChangeRelay) EventTypes() []string {
	return nil
}

// Publish sends msg stamped with this instance's ID
func (r *RedisChangeRelay) Publish(ctx context.Context, msg ChangeMessage) error {
	msg.Instance = r.instanceID
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixNano()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal change message: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish change message: %w", err)
	}
	return nil
}

// Run subscribes to the channel and blocks until ctx ends or Close is called
func (r *RedisChangeRelay) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("change relay already running")
	}
	subCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancelFn = cancel
	r.doneCh = make(chan struct{})
	done := r.doneCh
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		r.running = false
		r.cancelFn = nil
		r.mu.Unlock()
		close(done)
	}()

	pubsub := r.client.Subscribe(subCtx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.logger.Info("Change relay subscribed",
		zap.String("channel", r.channel),
		zap.String("instance", r.instanceID))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			r.logger.Info("Change relay stopped")
			return nil
		case msg, ok := <-ch:
			if !ok {
				r.logger.Warn("Change relay channel closed")
				return nil
			}
			r.deliver(msg.Payload)
		}
	}
}

// deliver decodes one payload and notifies the hub for changes made by other instances
func (r *RedisChangeRelay) deliver(payload string) {
	var msg ChangeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.logger.Warn("Discarding malformed change message", zap.Error(err))
		return
	}
	if msg.Instance == r.instanceID || msg.UserID == "" {
		return
	}
	r.logger.Debug("Remote change",
		zap.String("user_id", msg.UserID),
		zap.String("event_type", msg.EventType),
		zap.String("from", msg.Instance))
	r.notifier.Notify(msg.UserID)
}

// Close stops Run and waits for it to return
func (r *RedisChangeRelay) Close() error {
	r.mu.Lock()
	cancel, done := r.cancelFn, r.doneCh
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-time.After(defaultCloseTimeout):
		r.logger.Warn("Timeout waiting for change relay to stop")
	}
	return nil
}

var _ shared.EventHandler = (*RedisChangeRelay)(nil)
