package service

import (
	"context"
	"errors"
	"time"

	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TransactionService handles transaction-related business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	userRepo        domain.UserRepository
	eventPublisher  websocket.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, categoryRepo domain.CategoryRepository, userRepo domain.UserRepository) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		userRepo:        userRepo,
		eventPublisher:  websocket.NoOpPublisher{},
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TransactionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *TransactionService) publishEvent(userID int32, event websocket.Event) {
	s.eventPublisher.Publish(userID, event)
}

// TransactionInput is a complete transaction as sent on create and full replace
type TransactionInput struct {
	Description string
	Amount      decimal.Decimal
	Kind        domain.Kind
	Date        time.Time
	CategoryID  *int32
	Status      *domain.Status
}

// patch turns the input into a patch that sets every field, nulling the
// optional ones that are absent
func (in TransactionInput) patch() domain.TransactionPatch {
	description := in.Description
	amount := in.Amount
	kind := in.Kind
	date := in.Date
	return domain.TransactionPatch{
		Description:   &description,
		Amount:        &amount,
		Kind:          &kind,
		Date:          &date,
		CategoryID:    in.CategoryID,
		ClearCategory: in.CategoryID == nil,
		Status:        in.Status,
		ClearStatus:   in.Status == nil,
	}
}

// CreateTransaction validates and stores a new transaction for userID.
// The owner's company is copied onto the transaction.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID int32, input TransactionInput) (*domain.Transaction, error) {
	patch := input.patch()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkCategory(ctx, userID, patch.CategoryID, *patch.Kind); err != nil {
		return nil, err
	}

	owner, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	created, err := s.transactionRepo.Create(ctx, &domain.Transaction{
		Description: *patch.Description,
		Amount:      *patch.Amount,
		Kind:        *patch.Kind,
		Date:        *patch.Date,
		CategoryID:  patch.CategoryID,
		CompanyID:   owner.CompanyID,
		UserID:      userID,
		Status:      patch.Status,
	})
	if err != nil {
		log.Error().Err(err).Int32("user_id", userID).Msg("Failed to create transaction")
		return nil, err
	}

	s.publishEvent(userID, websocket.TransactionCreated(created))
	return created, nil
}

// GetTransaction returns one of userID's transactions
func (s *TransactionService) GetTransaction(ctx context.Context, userID, id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, userID, id)
}

// ListTransactions returns userID's transactions matching filters, newest first
func (s *TransactionService) ListTransactions(ctx context.Context, userID int32, filters domain.TransactionFilters) ([]*domain.Transaction, error) {
	if filters.Kind != nil && !filters.Kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	return s.transactionRepo.List(ctx, userID, filters)
}

// ReplaceTransaction overwrites every field of a transaction
func (s *TransactionService) ReplaceTransaction(ctx context.Context, userID, id int32, input TransactionInput) (*domain.Transaction, error) {
	return s.UpdateTransaction(ctx, userID, id, input.patch())
}

// UpdateTransaction applies a partial update. The resulting kind must still
// match the resulting category's kind.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, id int32, patch domain.TransactionPatch) (*domain.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	current, err := s.transactionRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	kind := current.Kind
	if patch.Kind != nil {
		kind = *patch.Kind
	}
	categoryID := current.CategoryID
	switch {
	case patch.ClearCategory:
		categoryID = nil
	case patch.CategoryID != nil:
		categoryID = patch.CategoryID
	}

	if patch.Kind != nil || patch.CategoryID != nil {
		if err := s.checkCategory(ctx, userID, categoryID, kind); err != nil {
			return nil, err
		}
	}

	updated, err := s.transactionRepo.Update(ctx, userID, id, patch)
	if err != nil {
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			log.Error().Err(err).Int32("user_id", userID).Int32("transaction_id", id).Msg("Failed to update transaction")
		}
		return nil, err
	}

	s.publishEvent(userID, websocket.TransactionUpdated(updated))
	return updated, nil
}

// DeleteTransaction removes one of userID's transactions
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id int32) error {
	if err := s.transactionRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publishEvent(userID, websocket.TransactionDeleted(id))
	return nil
}

// checkCategory verifies that categoryID, when set, belongs to userID and has the given kind
func (s *TransactionService) checkCategory(ctx context.Context, userID int32, categoryID *int32, kind domain.Kind) error {
	if categoryID == nil {
		return nil
	}
	category, err := s.categoryRepo.GetByID(ctx, userID, *categoryID)
	if err != nil {
		return err
	}
	if category.Kind != kind {
		return domain.ErrCategoryKindMismatch
	}
	return nil
}
