package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of money in a transaction or category
type Kind string

const (
	KindIncome  Kind = "receita"
	KindExpense Kind = "despesa"
)

// Valid reports whether k is income or expense
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Status is the optional payment state of a transaction
type Status string

const (
	StatusPending   Status = "pendente"
	StatusPaid      Status = "pago"
	StatusCancelled Status = "cancelado"
	StatusScheduled Status = "agendado"
	StatusLate      Status = "atrasado"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusScheduled, StatusLate:
		return true
	}
	return false
}

// DateLayout is the wire format of date-only values
const DateLayout = "2006-01-02"

// Transaction is a single income or expense entry ("lançamento")
type Transaction struct {
	ID           int32           `json:"id"`
	Description  string          `json:"descricao"`
	Amount       decimal.Decimal `json:"valor"`
	Kind         Kind            `json:"tipo"`
	Date         time.Time       `json:"data"`
	CategoryID   *int32          `json:"categoriaId"`
	CategoryName *string         `json:"categoriaNome,omitempty"`
	CompanyID    *int32          `json:"empresaId"`
	UserID       int32           `json:"usuarioId"`
	Status       *Status         `json:"status,omitempty"`
	CreatedAt    time.Time       `json:"criadoEm"`
	UpdatedAt    time.Time       `json:"atualizadoEm"`
}

// DeletionPolicy implements Deletable. Transactions are hard deleted.
func (*Transaction) DeletionPolicy() DeletionPolicy { return HardDelete }

// TransactionPatch carries a partial update. Only non-nil fields are written;
// ClearCategory and ClearStatus null the respective columns.
type TransactionPatch struct {
	Description   *string
	Amount        *decimal.Decimal
	Kind          *Kind
	Date          *time.Time
	CategoryID    *int32
	ClearCategory bool
	Status        *Status
	ClearStatus   bool
}

// IsEmpty reports whether the patch changes nothing
func (p TransactionPatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Kind == nil && p.Date == nil &&
		p.CategoryID == nil && !p.ClearCategory && p.Status == nil && !p.ClearStatus
}

// IsComplete reports whether every required field is present, as a full
// replacement (PUT) demands.
func (p TransactionPatch) IsComplete() bool {
	return p.Description != nil && p.Amount != nil && p.Kind != nil && p.Date != nil
}

// Validate normalizes and checks every present field
func (p *TransactionPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Description != nil {
		description, err := ValidateDescription(*p.Description)
		if err != nil {
			return err
		}
		p.Description = &description
	}
	if p.Amount != nil {
		amount, err := ValidateAmount(*p.Amount)
		if err != nil {
			return err
		}
		p.Amount = &amount
	}
	if p.Kind != nil && !p.Kind.Valid() {
		return ErrInvalidKind
	}
	if p.Date != nil {
		d := DateOnly(*p.Date)
		p.Date = &d
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// ValidateDescription trims a description and enforces its bounds
func ValidateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrDescriptionRequired
	}
	if len(description) > MaxDescriptionLength {
		return "", ErrDescriptionTooLong
	}
	return description, nil
}

// MaxAmount is the largest value a NUMERIC(12,2) column holds
var MaxAmount = decimal.RequireFromString("9999999999.99")

// ValidateAmount rounds amount to cents and requires the result to lie in (0, MaxAmount]
func ValidateAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() || amount.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// DateOnly drops the clock part of t, keeping its calendar date at UTC midnight
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TransactionFilters narrows a transaction listing
type TransactionFilters struct {
	Period     Period
	Kind       *Kind
	CategoryID *int32
	Search     string
}

// TransactionRepository defines the interface for transaction persistence.
// Every call is scoped to the owning user; a row owned by someone else
// behaves exactly like a missing row.
type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, userID int32, id int32) (*Transaction, error)
	List(ctx context.Context, userID int32, filters TransactionFilters) ([]*Transaction, error)
	Update(ctx context.Context, userID int32, id int32, patch TransactionPatch) (*Transaction, error)
	Delete(ctx context.Context, userID int32, id int32) error
}
