package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dataridge/internal/model"
)

// CompanyRepository defines company persistence operations.
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	// FindByEmail returns nil, nil when no company uses the email.
	FindByEmail(ctx context.Context, email string) (*model.Company, error)
	// CheckNameExists reports whether another company holds name. excludeID, when set, is ignored.
	CheckNameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, patch model.CompanyPatch) (*model.Company, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Company, error)
}

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

// Create inserts a new company.
func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

// FindByID finds a company by ID.
func (r *companyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// FindByEmail finds a company by contact email.
func (r *companyRepository) FindByEmail(ctx context.Context, email string) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).Where("contact_email = ?", email).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// CheckNameExists counts companies with the given name.
func (r *companyRepository) CheckNameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Company{}).Where("name = ?", name)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update applies patch inside a transaction and returns the stored row.
func (r *companyRepository) Update(ctx context.Context, id uuid.UUID, patch model.CompanyPatch) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&company).Error; err != nil {
			return err
		}
		// An empty patch still bumps updated_at.
		cols := patch.Columns()
		cols["updated_at"] = time.Now()
		if err := tx.Model(&company).Updates(cols).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&company).Error
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// Delete removes a company.
func (r *companyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Company{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByOwner lists the companies owned by ownerID, newest first.
func (r *companyRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Company, error) {
	var companies []model.Company
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("created_at DESC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}
