package stock

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
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

// MockItemRepository is a mock implementation of stock.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByID(ctx context.Context, userID string, id uuid.UUID) (*stock.Item, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Item), args.Error(1)
}

func (m *MockItemRepository) FindAll(ctx context.Context, userID string, filter shared.Filter) ([]stock.Item, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]stock.Item), args.Error(1)
}

func (m *MockItemRepository) FindLowStock(ctx context.Context, userID string, threshold int) ([]stock.Item, error) {
	args := m.Called(ctx, userID, threshold)
	return args.Get(0).([]stock.Item), args.Error(1)
}

func (m *MockItemRepository) Count(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepository) Create(ctx context.Context, item *stock.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) SaveWithLock(ctx context.Context, item *stock.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockItemRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCategoryRepository is a mock implementation of stock.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindAll(ctx context.Context, userID string) ([]stock.Category, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]stock.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, userID string, id uuid.UUID) (*stock.Category, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *stock.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
