package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dataridge/internal/cache"
	apperrors "dataridge/internal/errors"
	"dataridge/internal/model"
	"dataridge/internal/repository"
)

const companyCacheTTL = 5 * time.Minute

const (
	msgCompanyFieldsRequired = "Company name and contact email are required"
	msgCompanyNameExists     = "Company name already exists"
	msgCompanyEmailExists    = "Company with this email already exists"
	msgCompanyDuplicate      = "Company name or email already exists"
	msgCompanyNotFound       = "Company not found"
	msgCompanyAccessDenied   = "Access denied to this company"
	msgCompanyStoreFailed    = "Company operation failed"
)

// CompanyService handles company records with ownership and uniqueness rules.
type CompanyService interface {
	CreateCompany(ctx context.Context, input model.CompanyInput, ownerID uuid.UUID) (*model.Company, error)
	GetCompanyByID(ctx context.Context, id, requesterID uuid.UUID) (*model.Company, error)
	UpdateCompany(ctx context.Context, id uuid.UUID, patch model.CompanyPatch, requesterID uuid.UUID) (*model.Company, error)
	ListCompanies(ctx context.Context, ownerID uuid.UUID) ([]model.Company, error)
	DeleteCompany(ctx context.Context, id, requesterID uuid.UUID) error
}

type companyService struct {
	repo  repository.CompanyRepository
	cache *cache.Client
	log   *zap.Logger
}

// NewCompanyService creates a new company service. cache may be nil.
func NewCompanyService(repo repository.CompanyRepository, cache *cache.Client, log *zap.Logger) CompanyService {
	return &companyService{
		repo:  repo,
		cache: cache,
		log:   log.Named("company"),
	}
}

func (s *companyService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("company:%s", id.String())
}

// CreateCompany checks name then email uniqueness and stores the company for ownerID.
func (s *companyService) CreateCompany(ctx context.Context, input model.CompanyInput, ownerID uuid.UUID) (*model.Company, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.ContactEmail) == "" {
		return nil, apperrors.Validation(msgCompanyFieldsRequired)
	}

	if err := s.ensureNameFree(ctx, input.Name, nil); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, input.ContactEmail); err != nil {
		return nil, err
	}

	company := &model.Company{
		ID:           uuid.New(),
		Name:         input.Name,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		Address:      input.Address,
		UserID:       ownerID,
	}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, s.storeError("create company", err)
	}
	return company, nil
}

// GetCompanyByID returns the company if requesterID owns it.
func (s *companyService) GetCompanyByID(ctx context.Context, id, requesterID uuid.UUID) (*model.Company, error) {
	var cached model.Company
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		if err := checkOwner(&cached, requesterID); err != nil {
			return nil, err
		}
		return &cached, nil
	}

	company, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, s.cacheKey(id), company, companyCacheTTL)

	if err := checkOwner(company, requesterID); err != nil {
		return nil, err
	}
	return company, nil
}

// UpdateCompany applies patch to a company owned by requesterID. Uniqueness is
// only re-checked for fields the patch actually changes.
func (s *companyService) UpdateCompany(ctx context.Context, id uuid.UUID, patch model.CompanyPatch, requesterID uuid.UUID) (*model.Company, error) {
	if (patch.Name != nil && strings.TrimSpace(*patch.Name) == "") ||
		(patch.ContactEmail != nil && strings.TrimSpace(*patch.ContactEmail) == "") {
		return nil, apperrors.Validation(msgCompanyFieldsRequired)
	}

	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(existing, requesterID); err != nil {
		return nil, err
	}

	if patch.Name != nil && *patch.Name != existing.Name {
		if err := s.ensureNameFree(ctx, *patch.Name, &id); err != nil {
			return nil, err
		}
	}
	if patch.ContactEmail != nil && *patch.ContactEmail != existing.ContactEmail {
		if err := s.ensureEmailFree(ctx, *patch.ContactEmail); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.storeError("update company", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return updated, nil
}

// ListCompanies returns the companies owned by ownerID.
func (s *companyService) ListCompanies(ctx context.Context, ownerID uuid.UUID) ([]model.Company, error) {
	companies, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.storeError("list companies", err)
	}
	return companies, nil
}

// DeleteCompany removes a company owned by requesterID.
func (s *companyService) DeleteCompany(ctx context.Context, id, requesterID uuid.UUID) error {
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwner(existing, requesterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeError("delete company", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

func (s *companyService) load(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError("find company", err)
	}
	return company, nil
}

func (s *companyService) ensureNameFree(ctx context.Context, name string, excludeID *uuid.UUID) error {
	exists, err := s.repo.CheckNameExists(ctx, name, excludeID)
	if err != nil {
		return s.storeError("check company name", err)
	}
	if exists {
		return apperrors.Conflict(msgCompanyNameExists)
	}
	return nil
}

// ensureEmailFree rejects an email held by any company.
func (s *companyService) ensureEmailFree(ctx context.Context, email string) error {
	found, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return s.storeError("find company by email", err)
	}
	if found == nil {
		return nil
	}
	return apperrors.Conflict(msgCompanyEmailExists)
}

// storeError translates repository failures into domain errors.
func (s *companyService) storeError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(msgCompanyNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Conflict(msgCompanyDuplicate)
	default:
		s.log.Error(op, zap.Error(err))
		return apperrors.Internal(msgCompanyStoreFailed, err)
	}
}

func checkOwner(company *model.Company, requesterID uuid.UUID) error {
	if company.UserID != requesterID {
		return apperrors.Authorization(msgCompanyAccessDenied)
	}
	return nil
}
