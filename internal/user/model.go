package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                    uuid.UUID  `json:"id"`
	Email                 string     `json:"email"`
	HashedPassword        string     `json:"-"` // Never expose credential hashes in JSON
	HashedRefreshToken    *string    `json:"-"`
	PasswordLastUpdatedAt time.Time  `json:"password_last_updated_at"`
	ResetToken            *string    `json:"-"`
	ResetTokenExpiresAt   *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
