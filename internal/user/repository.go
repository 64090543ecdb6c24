package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/jchevalier/auth-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, email, hashedPassword string, passwordLastUpdatedAt time.Time) (*User, error) {
	dbUser := &database.User{
		Email:                 email,
		HashedPassword:        hashedPassword,
		PasswordLastUpdatedAt: passwordLastUpdatedAt,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByResetToken retrieves a user by their currently stored reset token
func (r *Repository) GetByResetToken(ctx context.Context, token string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("reset_token = ?", token).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdateByID applies a partial update to the user with the given ID
func (r *Repository) UpdateByID(ctx context.Context, id uuid.UUID, upd Update) error {
	return r.update(ctx, upd, "id = ?", id)
}

// UpdateByEmail applies a partial update to the user with the given email
func (r *Repository) UpdateByEmail(ctx context.Context, email string, upd Update) error {
	return r.update(ctx, upd, "email = ?", email)
}

// UpdateByResetToken applies a partial update to the user holding the given reset token
func (r *Repository) UpdateByResetToken(ctx context.Context, token string, upd Update) error {
	return r.update(ctx, upd, "reset_token = ?", token)
}

func (r *Repository) update(ctx context.Context, upd Update, where string, arg any) error {
	if upd.IsZero() {
		return nil
	}

	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("updated_at = NOW()").
		Where(where, arg)

	if upd.HashedPassword != nil {
		q = q.Set("hashed_password = ?", *upd.HashedPassword)
	}
	if upd.HashedRefreshToken != nil {
		q = q.Set("hashed_refresh_token = ?", *upd.HashedRefreshToken)
	}
	if upd.ClearHashedRefreshToken {
		q = q.Set("hashed_refresh_token = ?", nil)
	}
	if upd.PasswordLastUpdatedAt != nil {
		q = q.Set("password_last_updated_at = ?", *upd.PasswordLastUpdatedAt)
	}
	if upd.ResetToken != nil {
		q = q.Set("reset_token = ?", *upd.ResetToken)
	}
	if upd.ResetTokenExpiresAt != nil {
		q = q.Set("reset_token_expires_at = ?", *upd.ResetTokenExpiresAt)
	}
	if upd.ClearResetToken {
		q = q.Set("reset_token = ?", nil).
			Set("reset_token_expires_at = ?", nil)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                    dbu.ID,
		Email:                 dbu.Email,
		HashedPassword:        dbu.HashedPassword,
		HashedRefreshToken:    dbu.HashedRefreshToken,
		PasswordLastUpdatedAt: dbu.PasswordLastUpdatedAt,
		ResetToken:            dbu.ResetToken,
		ResetTokenExpiresAt:   dbu.ResetTokenExpiresAt,
		CreatedAt:             dbu.CreatedAt,
		UpdatedAt:             dbu.UpdatedAt,
	}
}
