package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is a business record owned by a single user.
type Company struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(255) COLLATE utf8mb4_bin;uniqueIndex;not null"`
	ContactEmail string    `json:"contact_email" gorm:"type:varchar(255) COLLATE utf8mb4_bin;uniqueIndex;not null"`
	ContactPhone *string   `json:"contact_phone,omitempty" gorm:"size:50"`
	Address      *string   `json:"address,omitempty" gorm:"size:500"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CompanyInput carries the fields accepted when creating a company.
type CompanyInput struct {
	Name         string  `json:"name"`
	ContactEmail string  `json:"contact_email"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Address      *string `json:"address,omitempty"`
}

// CompanyPatch is a partial update; nil fields are left untouched.
type CompanyPatch struct {
	Name         *string
	ContactEmail *string
	ContactPhone *string
	Address      *string
}

// Columns returns the column/value pairs set by the patch.
func (p CompanyPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.ContactEmail != nil {
		cols["contact_email"] = *p.ContactEmail
	}
	if p.ContactPhone != nil {
		cols["contact_phone"] = *p.ContactPhone
	}
	if p.Address != nil {
		cols["address"] = *p.Address
	}
	return cols
}
