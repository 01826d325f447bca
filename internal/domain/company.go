package domain

import (
	"context"
	"strings"
	"time"
)

// TaxIDLength is the number of digits of a CNPJ
const TaxIDLength = 14

// Company is an organization users and transactions may belong to
type Company struct {
	ID        int32      `json:"id"`
	Name      string     `json:"nome"`
	TaxID     string     `json:"cnpj"`
	CreatedAt time.Time  `json:"criadoEm"`
	UpdatedAt time.Time  `json:"atualizadoEm"`
	DeletedAt *time.Time `json:"-"`
}

// DeletionPolicy implements Deletable. Companies are soft deleted.
func (*Company) DeletionPolicy() DeletionPolicy { return SoftDelete }

// CompanyPatch holds optional company field changes
type CompanyPatch struct {
	Name  *string
	TaxID *string
}

// IsEmpty reports whether the patch changes nothing
func (p CompanyPatch) IsEmpty() bool {
	return p.Name == nil && p.TaxID == nil
}

// Validate normalizes and checks every present field
func (p *CompanyPatch) Validate() error {
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
	if p.TaxID != nil {
		taxID, err := NormalizeTaxID(*p.TaxID)
		if err != nil {
			return err
		}
		p.TaxID = &taxID
	}
	return nil
}

// NormalizeTaxID strips CNPJ punctuation ("12.345.678/0001-90") and checks
// that exactly 14 digits remain.
func NormalizeTaxID(taxID string) (string, error) {
	var b strings.Builder
	for _, r := range taxID {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '/' || r == '-' || r == ' ':
		default:
			return "", ErrInvalidTaxID
		}
	}
	if b.Len() != TaxIDLength {
		return "", ErrInvalidTaxID
	}
	return b.String(), nil
}

// CompanyRepository defines the interface for company persistence operations.
// Soft-deleted companies are invisible to every read.
type CompanyRepository interface {
	GetByID(ctx context.Context, id int32) (*Company, error)
	List(ctx context.Context) ([]*Company, error)
	Create(ctx context.Context, company *Company) (*Company, error)
	Update(ctx context.Context, id int32, patch CompanyPatch) (*Company, error)
	SoftDelete(ctx context.Context, id int32) error
}
