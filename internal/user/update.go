package user

import "time"

// Update describes a partial user update. Nil pointer fields are left
// untouched; the Clear flags set the corresponding nullable columns to
// NULL (a nil pointer alone cannot express that).
type Update struct {
	HashedPassword        *string
	HashedRefreshToken    *string
	PasswordLastUpdatedAt *time.Time
	ResetToken            *string
	ResetTokenExpiresAt   *time.Time

	ClearHashedRefreshToken bool
	ClearResetToken         bool // clears reset_token and reset_token_expires_at together
}

// IsZero reports whether the update would touch no columns.
func (u Update) IsZero() bool {
	return u.HashedPassword == nil &&
		u.HashedRefreshToken == nil &&
		u.PasswordLastUpdatedAt == nil &&
		u.ResetToken == nil &&
		u.ResetTokenExpiresAt == nil &&
		!u.ClearHashedRefreshToken &&
		!u.ClearResetToken
}
