package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database representation of a user row.
//
// hashed_refresh_token holds the argon2id hash of the single currently
// valid refresh token, NULL when logged out. reset_token and
// reset_token_expires_at are set and cleared together.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                    uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email                 string     `bun:"email,notnull,unique"`
	HashedPassword        string     `bun:"hashed_password,notnull"`
	HashedRefreshToken    *string    `bun:"hashed_refresh_token"`
	PasswordLastUpdatedAt time.Time  `bun:"password_last_updated_at,notnull"`
	ResetToken            *string    `bun:"reset_token,unique"`
	ResetTokenExpiresAt   *time.Time `bun:"reset_token_expires_at"`
	CreatedAt             time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt             time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}
