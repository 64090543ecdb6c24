package auth

import "errors"

var (
	// ErrInvalidCredentials covers wrong password and failed refresh-token
	// verification alike, so callers cannot tell which check failed.
	ErrInvalidCredentials = errors.New("credentials incorrect")

	ErrEmailTaken        = errors.New("credentials taken")
	ErrUserNotFound      = errors.New("user doesn't exist")
	ErrCooldownActive    = errors.New("please wait before requesting another password reset")
	ErrInvalidResetToken = errors.New("invalid reset token")
	ErrResetTokenExpired = errors.New("reset token has expired")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// WeakPasswordError reports the first password-policy rule a candidate
// password violated.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string {
	return e.Reason
}

// IsWeakPassword reports whether err is a WeakPasswordError.
func IsWeakPassword(err error) bool {
	var wpe *WeakPasswordError
	return errors.As(err, &wpe)
}
