package domain

import (
	"context"
	"time"
)

// Category groups transactions of a single kind
type Category struct {
	ID        int32     `json:"id"`
	Name      string    `json:"nome"`
	Kind      Kind      `json:"tipo"`
	CompanyID *int32    `json:"empresaId"`
	UserID    *int32    `json:"usuarioId"`
	CreatedAt time.Time `json:"criadoEm"`
	UpdatedAt time.Time `json:"atualizadoEm"`
}

// DeletionPolicy implements Deletable. Categories are hard deleted; their
// transactions keep existing without a category.
func (*Category) DeletionPolicy() DeletionPolicy { return HardDelete }

// CategoryPatch holds optional category field changes
type CategoryPatch struct {
	Name *string
	Kind *Kind
}

// IsEmpty reports whether the patch changes nothing
func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Kind == nil
}

// Validate normalizes and checks every present field
func (p *CategoryPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Name != nil {
		name, err := ValidateName(*p.Name)
		if err != nil {
			return err
		}
		p.Name = &name
	}
	if p.Kind != nil && !p.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// CategoryFilters narrows a category listing
type CategoryFilters struct {
	Kind *Kind
}

// CategoryRepository defines the interface for category persistence operations.
// Every call is scoped to the owning user.
type CategoryRepository interface {
	GetByID(ctx context.Context, userID int32, id int32) (*Category, error)
	List(ctx context.Context, userID int32, filters CategoryFilters) ([]*Category, error)
	Create(ctx context.Context, category *Category) (*Category, error)
	Update(ctx context.Context, userID int32, id int32, patch CategoryPatch) (*Category, error)
	Delete(ctx context.Context, userID int32, id int32) error
}
