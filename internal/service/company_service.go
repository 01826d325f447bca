package service

import (
	"context"

	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// CompanyService handles company-related business logic
type CompanyService struct {
	companyRepo domain.CompanyRepository
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(companyRepo domain.CompanyRepository) *CompanyService {
	return &CompanyService{companyRepo: companyRepo}
}

// CreateCompany validates the name and CNPJ and stores a new company
func (s *CompanyService) CreateCompany(ctx context.Context, name, taxID string) (*domain.Company, error) {
	name, err := domain.ValidateName(name)
	if err != nil {
		return nil, err
	}
	taxID, err = domain.NormalizeTaxID(taxID)
	if err != nil {
		return nil, err
	}

	created, err := s.companyRepo.Create(ctx, &domain.Company{Name: name, TaxID: taxID})
	if err != nil {
		return nil, err
	}

	log.Info().Int32("company_id", created.ID).Msg("Company created")
	return created, nil
}

// GetCompany returns an active company
func (s *CompanyService) GetCompany(ctx context.Context, id int32) (*domain.Company, error) {
	return s.companyRepo.GetByID(ctx, id)
}

// ListCompanies returns every active company
func (s *CompanyService) ListCompanies(ctx context.Context) ([]*domain.Company, error) {
	return s.companyRepo.List(ctx)
}

// UpdateCompany applies a partial update
func (s *CompanyService) UpdateCompany(ctx context.Context, id int32, patch domain.CompanyPatch) (*domain.Company, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.companyRepo.Update(ctx, id, patch)
}

// DeleteCompany soft deletes a company
func (s *CompanyService) DeleteCompany(ctx context.Context, id int32) error {
	if err := s.companyRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	log.Info().Int32("company_id", id).Msg("Company deleted")
	return nil
}
