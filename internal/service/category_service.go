package service

import (
	"context"

	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// CategoryService handles category-related business logic
type CategoryService struct {
	categoryRepo    domain.CategoryRepository
	transactionRepo domain.TransactionRepository
	userRepo        domain.UserRepository
	eventPublisher  websocket.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository, transactionRepo domain.TransactionRepository, userRepo domain.UserRepository) *CategoryService {
	return &CategoryService{
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		eventPublisher:  websocket.NoOpPublisher{},
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *CategoryService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *CategoryService) publishEvent(userID int32, event websocket.Event) {
	s.eventPublisher.Publish(userID, event)
}

// CreateCategory creates a category owned by userID in the owner's company
func (s *CategoryService) CreateCategory(ctx context.Context, userID int32, name string, kind domain.Kind) (*domain.Category, error) {
	name, err := domain.ValidateName(name)
	if err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	owner, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	created, err := s.categoryRepo.Create(ctx, &domain.Category{
		Name:      name,
		Kind:      kind,
		CompanyID: owner.CompanyID,
		UserID:    &userID,
	})
	if err != nil {
		log.Error().Err(err).Int32("user_id", userID).Msg("Failed to create category")
		return nil, err
	}

	s.publishEvent(userID, websocket.CategoryCreated(created))
	return created, nil
}

// GetCategory returns one of userID's categories
func (s *CategoryService) GetCategory(ctx context.Context, userID, id int32) (*domain.Category, error) {
	return s.categoryRepo.GetByID(ctx, userID, id)
}

// ListCategories returns userID's categories, optionally of one kind
func (s *CategoryService) ListCategories(ctx context.Context, userID int32, filters domain.CategoryFilters) ([]*domain.Category, error) {
	if filters.Kind != nil && !filters.Kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	return s.categoryRepo.List(ctx, userID, filters)
}

// UpdateCategory applies a partial update. Changing the kind is refused while
// transactions of the old kind still reference the category.
func (s *CategoryService) UpdateCategory(ctx context.Context, userID, id int32, patch domain.CategoryPatch) (*domain.Category, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	current, err := s.categoryRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Kind != nil && *patch.Kind != current.Kind {
		used, err := s.transactionRepo.List(ctx, userID, domain.TransactionFilters{CategoryID: &id})
		if err != nil {
			return nil, err
		}
		if len(used) > 0 {
			return nil, domain.ErrCategoryKindMismatch
		}
	}

	updated, err := s.categoryRepo.Update(ctx, userID, id, patch)
	if err != nil {
		return nil, err
	}

	s.publishEvent(userID, websocket.CategoryUpdated(updated))
	return updated, nil
}

// DeleteCategory removes a category; its transactions become uncategorized
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, id int32) error {
	if err := s.categoryRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publishEvent(userID, websocket.CategoryDeleted(id))
	return nil
}
