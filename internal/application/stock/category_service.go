package stock

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// CategoryService manages the user's category labels. Names are unique per
// user under Unicode case folding.
type CategoryService struct {
	repo      stock.CategoryRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
	fold      cases.Caser
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(repo stock.CategoryRepository, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		repo:      repo,
		publisher: shared.NoopEventPublisher{},
		logger:    logger,
		fold:      cases.Fold(),
	}
}

// SetEventPublisher sets the publisher that receives category events
func (s *CategoryService) SetEventPublisher(publisher shared.EventPublisher) {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	s.publisher = publisher
}

// CreateCategory adds a category. Fails with ALREADY_EXISTS if a category with
// the same folded name exists.
func (s *CategoryService) CreateCategory(ctx context.Context, userID string, req CreateCategoryRequest) (*CategoryResponse, error) {
	category, err := stock.NewCategory(userID, req.Name)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := s.fold.String(category.Name)
	for i := range existing {
		if s.fold.String(existing[i].Name) == key {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Category already exists: "+existing[i].Name)
		}
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	s.publish(ctx, stock.NewCategoryChangedEvent(stock.EventTypeCategoryAdded, category))

	response := ToCategoryResponse(category)
	return &response, nil
}

// ListCategories lists categories ordered by folded name
func (s *CategoryService) ListCategories(ctx context.Context, userID string) ([]CategoryResponse, error) {
	categories, err := s.repo.FindAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return s.fold.String(categories[i].Name) < s.fold.String(categories[j].Name)
	})

	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = ToCategoryResponse(&categories[i])
	}
	return responses, nil
}

// DeleteCategory removes a category; items keep their category text
func (s *CategoryService) DeleteCategory(ctx context.Context, userID string, id uuid.UUID) error {
	category, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, stock.NewCategoryChangedEvent(stock.EventTypeCategoryRemoved, category))
	return nil
}

func (s *CategoryService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish category events", zap.Error(err))
	}
}
