package sales

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/sales"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
	"github.com/stretchr/testify/mock"
)

// memStore is a transactional in-memory store. A transaction holds the store
// lock for its whole duration and is rolled back to a snapshot on error.
type memStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]stock.Item
	sales map[uuid.UUID]sales.Sale

	// itemConflicts makes the next N item saves fail as if another writer won
	itemConflicts int
	executions    int
}

func newMemStore() *memStore {
	return &memStore{
		items: make(map[uuid.UUID]stock.Item),
		sales: make(map[uuid.UUID]sales.Sale),
	}
}

func (m *memStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions++

	items := make(map[uuid.UUID]stock.Item, len(m.items))
	for k, v := range m.items {
		items[k] = v
	}
	saleRows := make(map[uuid.UUID]sales.Sale, len(m.sales))
	for k, v := range m.sales {
		saleRows[k] = v
	}

	if err := fn(memTx{store: m}); err != nil {
		m.items = items
		m.sales = saleRows
		return err
	}
	return nil
}

func (m *memStore) item(id uuid.UUID) stock.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

func (m *memStore) saleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sales)
}

func (m *memStore) hasSale(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sales[id]
	return ok
}

// outside returns a sale repository for calls made outside a transaction
func (m *memStore) outside() sales.SaleRepository {
	return &memSaleRepo{store: m, lock: true}
}

type memTx struct {
	store *memStore
}

func (t memTx) ItemRepo() stock.ItemRepository { return &memItemRepo{store: t.store} }
func (t memTx) SaleRepo() sales.SaleRepository { return &memSaleRepo{store: t.store} }

type memItemRepo struct {
	store *memStore
}

func (r *memItemRepo) FindByID(_ context.Context, userID string, id uuid.UUID) (*stock.Item, error) {
	item, ok := r.store.items[id]
	if !ok || item.UserID != userID {
		return nil, shared.NewNotFoundError("Item not found in inventory.")
	}
	item.ClearDomainEvents()
	return &item, nil
}

func (r *memItemRepo) FindAll(_ context.Context, userID string, _ shared.Filter) ([]stock.Item, error) {
	var out []stock.Item
	for _, item := range r.store.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r *memItemRepo) FindLowStock(ctx context.Context, userID string, threshold int) ([]stock.Item, error) {
	all, _ := r.FindAll(ctx, userID, shared.DefaultFilter())
	var out []stock.Item
	for _, item := range all {
		if item.IsLowStock(threshold) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *memItemRepo) Count(ctx context.Context, userID string) (int64, error) {
	all, _ := r.FindAll(ctx, userID, shared.DefaultFilter())
	return int64(len(all)), nil
}

func (r *memItemRepo) Create(_ context.Context, item *stock.Item) error {
	r.store.items[item.ID] = *item
	return nil
}

func (r *memItemRepo) SaveWithLock(_ context.Context, item *stock.Item) error {
	stored, ok := r.store.items[item.ID]
	if !ok || stored.UserID != item.UserID {
		return shared.NewNotFoundError("Item not found in inventory.")
	}
	if r.store.itemConflicts > 0 {
		r.store.itemConflicts--
		return shared.ErrConcurrencyConflict
	}
	if stored.Version != item.Version {
		return shared.ErrConcurrencyConflict
	}
	item.Version++
	r.store.items[item.ID] = *item
	return nil
}

func (r *memItemRepo) Delete(_ context.Context, userID string, id uuid.UUID) error {
	if item, ok := r.store.items[id]; !ok || item.UserID != userID {
		return shared.NewNotFoundError("Item not found in inventory.")
	}
	delete(r.store.items, id)
	return nil
}

func (r *memItemRepo) DeleteAll(_ context.Context, userID string) (int64, error) {
	var n int64
	for id, item := range r.store.items {
		if item.UserID == userID {
			delete(r.store.items, id)
			n++
		}
	}
	return n, nil
}

type memSaleRepo struct {
	store *memStore
	lock  bool
}

func (r *memSaleRepo) guard() func() {
	if !r.lock {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memSaleRepo) FindByID(_ context.Context, userID string, id uuid.UUID) (*sales.Sale, error) {
	defer r.guard()()
	sale, ok := r.store.sales[id]
	if !ok || sale.UserID != userID {
		return nil, shared.NewNotFoundError("Sale not found.")
	}
	sale.ClearDomainEvents()
	return &sale, nil
}

func (r *memSaleRepo) FindByDateRange(_ context.Context, userID string, tr shared.TimeRange) ([]sales.Sale, error) {
	defer r.guard()()
	var out []sales.Sale
	for _, sale := range r.store.sales {
		if sale.UserID == userID && tr.Contains(sale.SaleDate) {
			sale.ClearDomainEvents()
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	return out, nil
}

func (r *memSaleRepo) Create(_ context.Context, sale *sales.Sale) error {
	defer r.guard()()
	r.store.sales[sale.ID] = *sale
	return nil
}

func (r *memSaleRepo) SaveWithLock(_ context.Context, sale *sales.Sale) error {
	defer r.guard()()
	stored, ok := r.store.sales[sale.ID]
	if !ok || stored.Version != sale.Version {
		return shared.ErrConcurrencyConflict
	}
	sale.Version++
	r.store.sales[sale.ID] = *sale
	return nil
}

func (r *memSaleRepo) DeleteWithLock(_ context.Context, sale *sales.Sale) error {
	defer r.guard()()
	stored, ok := r.store.sales[sale.ID]
	if !ok || stored.Version != sale.Version {
		return shared.ErrConcurrencyConflict
	}
	delete(r.store.sales, sale.ID)
	return nil
}

func (r *memSaleRepo) DeleteByIDs(_ context.Context, userID string, ids []uuid.UUID) (int64, error) {
	defer r.guard()()
	var n int64
	for _, id := range ids {
		if sale, ok := r.store.sales[id]; ok && sale.UserID == userID {
			delete(r.store.sales, id)
			n++
		}
	}
	return n, nil
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockPurgeArchiver is a mock implementation of PurgeArchiver
type MockPurgeArchiver struct {
	mock.Mock
}

func (m *MockPurgeArchiver) ArchiveSales(ctx context.Context, userID string, r shared.TimeRange, list []sales.Sale) (string, error) {
	args := m.Called(ctx, userID, r, list)
	return args.String(0), args.Error(1)
}
