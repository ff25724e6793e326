// Package livequery re-delivers query results to subscribers whenever a
// committed change touches their user namespace.
package livequery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	appsales "github.com/inventrack/backend/internal/application/sales"
	appstock "github.com/inventrack/backend/internal/application/stock"
	"github.com/inventrack/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// QueryKind names a live query
type QueryKind string

// Supported queries
const (
	QueryItems    QueryKind = "items"
	QueryLowStock QueryKind = "low_stock"
	QuerySales    QueryKind = "sales"
)

// Query describes what a subscriber watches. Start and End only apply to
// QuerySales; both zero means the current day.
type Query struct {
	Kind  QueryKind `json:"kind"`
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Snapshot is one delivery of a query result.
// Err is set instead of the result when loading failed; the subscription stays open.
type Snapshot struct {
	Query       Query                      `json:"query"`
	Items       []appstock.ItemResponse    `json:"items,omitempty"`
	Sales       *appsales.SaleListResponse `json:"sales,omitempty"`
	DeliveredAt time.Time                  `json:"delivered_at"`
	Err         error                      `json:"-"`
}

// Listener receives snapshots. Calls for one subscription never overlap.
type Listener func(Snapshot)

// CancelFunc ends a subscription. It is safe to call more than once and
// returns after any in-flight delivery finished. It must not be called from
// inside the subscription's own listener.
type CancelFunc func()

// ItemSource loads item query results
type ItemSource interface {
	ListItems(ctx context.Context, userID string, filter appstock.ItemListFilter) ([]appstock.ItemResponse, int64, error)
	ListLowStock(ctx context.Context, userID string) ([]appstock.ItemResponse, error)
}

// SaleSource loads sale query results
type SaleSource interface {
	ListSales(ctx context.Context, userID string, start, end time.Time) (*appsales.SaleListResponse, error)
}

// Config controls the Hub
type Config struct {
	LoadTimeout  time.Duration
	ItemPageSize int
}

// DefaultConfig returns the default hub configuration
func DefaultConfig() Config {
	return Config{
		LoadTimeout:  5 * time.Second,
		ItemPageSize: 500,
	}
}

// Hub tracks live subscriptions. It implements shared.EventHandler so it can
// be subscribed to the event bus; Notify marks a namespace changed directly.
type Hub struct {
	items  ItemSource
	sales  SaleSource
	logger *zap.Logger
	config Config
	now    func() time.Time

	mu     sync.RWMutex
	subs   map[string]map[uuid.UUID]*subscription
	closed bool
}

type subscription struct {
	id       uuid.UUID
	userID   string
	query    Query
	listener Listener
	dirty    chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new Hub
func NewHub(items ItemSource, sales SaleSource, logger *zap.Logger, cfg Config) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = defaults.LoadTimeout
	}
	if cfg.ItemPageSize <= 0 {
		cfg.ItemPageSize = defaults.ItemPageSize
	}
	return &Hub{
		items:  items,
		sales:  sales,
		logger: logger,
		config: cfg,
		now:    time.Now,
		subs:   make(map[string]map[uuid.UUID]*subscription),
	}
}

// ParseQueryKind validates a query name
func ParseQueryKind(name string) (QueryKind, error) {
	switch kind := QueryKind(name); kind {
	case QueryItems, QueryLowStock, QuerySales:
		return kind, nil
	default:
		return "", shared.NewInvalidInputError("Unknown live query: %s", name)
	}
}

// Subscribe registers listener for query in userID's namespace. The listener
// receives an initial snapshot, then a fresh snapshot after changes. Rapid
// changes are coalesced into one delivery. The subscription also ends when
// ctx is done.
func (h *Hub) Subscribe(ctx context.Context, userID string, query Query, listener Listener) (CancelFunc, error) {
	if userID == "" {
		return nil, shared.NewInvalidInputError("User ID is required")
	}
	if listener == nil {
		return nil, shared.NewInvalidInputError("Listener is required")
	}
	if _, err := ParseQueryKind(string(query.Kind)); err != nil {
		return nil, err
	}
	if query.Kind == QuerySales && query.Start.IsZero() != query.End.IsZero() {
		return nil, shared.NewInvalidInputError("Start and end must both be set or both be empty")
	}

	sub := &subscription{
		id:       uuid.New(),
		userID:   userID,
		query:    query,
		listener: listener,
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	sub.dirty <- struct{}{}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, shared.NewDomainError(shared.CodeUnknown, "Live query hub is closed")
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uuid.UUID]*subscription)
	}
	h.subs[userID][sub.id] = sub
	h.mu.Unlock()

	go h.run(ctx, sub)

	h.logger.Debug("Live query subscribed",
		zap.String("user_id", userID),
		zap.String("query", string(query.Kind)),
		zap.String("subscription_id", sub.id.String()),
	)

	return func() {
		h.remove(sub)
		sub.stop()
		<-sub.stopped
	}, nil
}

// Notify marks every subscription in userID's namespace as changed
func (h *Hub) Notify(userID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs[userID] {
		select {
		case sub.dirty <- struct{}{}:
		default:
		}
	}
}

// Handle implements shared.EventHandler
func (h *Hub) Handle(_ context.Context, event shared.DomainEvent) error {
	h.Notify(event.UserID())
	return nil
}

// EventTypes implements shared.EventHandler; the hub listens to every event
func (h *Hub) EventTypes() []string {
	return nil
}

// SubscriptionCount returns the number of open subscriptions
func (h *Hub) SubscriptionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, subs := range h.subs {
		n += len(subs)
	}
	return n
}

// Close ends every subscription and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	all := make([]*subscription, 0)
	for _, subs := range h.subs {
		for _, sub := range subs {
			all = append(all, sub)
		}
	}
	h.subs = make(map[string]map[uuid.UUID]*subscription)
	h.mu.Unlock()

	for _, sub := range all {
		sub.stop()
		<-sub.stopped
	}
}

func (h *Hub) run(ctx context.Context, sub *subscription) {
	defer close(sub.stopped)
	for {
		select {
		case <-sub.done:
			return
		case <-ctx.Done():
			h.remove(sub)
			return
		case <-sub.dirty:
			snapshot := h.load(ctx, sub)
			select {
			case <-sub.done:
				return
			default:
			}
			h.deliver(sub, snapshot)
		}
	}
}

func (h *Hub) deliver(sub *subscription, snapshot Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic in live query listener",
				zap.String("subscription_id", sub.id.String()),
				zap.Any("panic", r),
			)
		}
	}()
	sub.listener(snapshot)
}

func (h *Hub) load(ctx context.Context, sub *subscription) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, h.config.LoadTimeout)
	defer cancel()

	snapshot := Snapshot{Query: sub.query}
	var err error
	switch sub.query.Kind {
	case QueryItems:
		snapshot.Items, _, err = h.items.ListItems(ctx, sub.userID, appstock.ItemListFilter{
			Page:     1,
			PageSize: h.config.ItemPageSize,
		})
	case QueryLowStock:
		snapshot.Items, err = h.items.ListLowStock(ctx, sub.userID)
	case QuerySales:
		snapshot.Sales, err = h.sales.ListSales(ctx, sub.userID, sub.query.Start, sub.query.End)
	}
	if err != nil {
		h.logger.Warn("Live query load failed",
			zap.String("user_id", sub.userID),
			zap.String("query", string(sub.query.Kind)),
			zap.Error(err),
		)
		snapshot = Snapshot{Query: sub.query, Err: err}
	}
	snapshot.DeliveredAt = h.now()
	return snapshot
}

func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subs[sub.userID]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(h.subs, sub.userID)
		}
	}
}

func (s *subscription) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
