package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered user of the system.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255) COLLATE utf8mb4_bin;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PublicUser is the projection of a user returned to clients.
type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Public returns the client-facing projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email}
}
