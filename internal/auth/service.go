package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jchevalier/auth-api/internal/logging"
	"github.com/jchevalier/auth-api/internal/user"
)

// UserStore is the persistence contract the service depends on. Implemented
// by user.Repository; tests substitute an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, email, hashedPassword string, passwordLastUpdatedAt time.Time) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByResetToken(ctx context.Context, token string) (*user.User, error)
	UpdateByID(ctx context.Context, id uuid.UUID, upd user.Update) error
	UpdateByEmail(ctx context.Context, email string, upd user.Update) error
	UpdateByResetToken(ctx context.Context, token string, upd user.Update) error
}

// Mailer sends an HTML mail and reports which recipients the server accepted.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, html string) (accepted []string, err error)
}

// PasswordResetRequest is the outcome of a successful ForgotPassword call.
type PasswordResetRequest struct {
	ResetToken          string    `json:"resetToken"`
	ResetTokenExpiresAt time.Time `json:"resetTokenExpiresAt"`
	ResetMailRecipient  string    `json:"resetMailRecipient"`
}

// ResetTokenValidity is the outcome of a CheckResetToken call. Email is
// only populated for tokens that are still valid.
type ResetTokenValidity struct {
	IsExpired bool   `json:"isExpired"`
	Email     string `json:"email,omitempty"`
}

// Service implements the credential lifecycle: signup, signin, logout,
// refresh-token rotation and the password-reset state machine. All durable
// state lives in the user store; the service itself is stateless and safe
// for concurrent use.
type Service struct {
	store       UserStore
	mailer      Mailer
	hasher      *Hasher
	issuer      *TokenIssuer
	resetTokens *ResetTokenGenerator
	policy      PasswordPolicy
	logger      *logging.Logger

	frontendURL string

	// resetTokenTTL gates both reset-link validity and the cooldown between
	// reset requests.
	resetTokenTTL time.Duration

	now func() time.Time
}

func NewService(
	store UserStore,
	mailer Mailer,
	hasher *Hasher,
	issuer *TokenIssuer,
	resetTokens *ResetTokenGenerator,
	logger *logging.Logger,
	frontendURL string,
	resetTokenTTL time.Duration,
) *Service {
	return &Service{
		store:         store,
		mailer:        mailer,
		hasher:        hasher,
		issuer:        issuer,
		resetTokens:   resetTokens,
		policy:        DefaultPasswordPolicy(),
		logger:        logger,
		frontendURL:   frontendURL,
		resetTokenTTL: resetTokenTTL,
		now:           time.Now,
	}
}

// Signup registers a new user and returns their first token pair.
func (s *Service) Signup(ctx context.Context, email, password string) (*TokenPair, error) {
	if err := s.policy.Validate(password); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.store.Create(ctx, email, hashedPassword, s.now())
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.issueAndStore(ctx, newUser.ID, newUser.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", "user_id", newUser.ID)
	return tokens, nil
}

// Signin authenticates an existing user and returns a fresh token pair,
// rotating any previously issued refresh token.
func (s *Service) Signin(ctx context.Context, email, password string) (*TokenPair, error) {
	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(existing.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueAndStore(ctx, existing.ID, existing.Email)
}

// Logout clears the stored refresh-token hash. Idempotent: logging out an
// already logged-out or unknown user still reports success, matching the
// fire-and-forget semantics clients expect from logout.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) (bool, error) {
	err := s.store.UpdateByID(ctx, userID, user.Update{ClearHashedRefreshToken: true})
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return false, fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return true, nil
}

// Refresh rotates the token pair. The caller has already verified the
// refresh token's signature and expiry; this re-checks the raw token
// against the stored hash, so a rotated-out token can never be replayed.
func (s *Service) Refresh(ctx context.Context, userID uuid.UUID, refreshToken string) (*TokenPair, error) {
	existing, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if existing.HashedRefreshToken == nil {
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(*existing.HashedRefreshToken, refreshToken) {
		return nil, ErrInvalidCredentials
	}

	return s.issueAndStore(ctx, existing.ID, existing.Email)
}

// ForgotPassword starts the reset flow: generates a time-boxed single-use
// token, persists it on the user, and emails the reset link. The token is
// persisted before the mail is sent, so a mail failure leaves a valid
// pending token behind; the client re-requests after the cooldown.
func (s *Service) ForgotPassword(ctx context.Context, email string) (*PasswordResetRequest, error) {
	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if s.onCooldown(existing) {
		return nil, ErrCooldownActive
	}

	reset, err := s.resetTokens.Generate()
	if err != nil {
		return nil, err
	}

	err = s.store.UpdateByEmail(ctx, email, user.Update{
		ResetToken:          &reset.Token,
		ResetTokenExpiresAt: &reset.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store reset token: %w", err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?resetToken=%s", s.frontendURL, reset.Token)

	accepted, err := s.mailer.SendMail(ctx, email, "Password reset request", resetEmailBody(resetLink))
	if err != nil {
		return nil, fmt.Errorf("failed to send reset email: %w", err)
	}
	if len(accepted) == 0 {
		return nil, fmt.Errorf("reset email accepted no recipients")
	}

	s.logger.Info("password reset requested", "user_id", existing.ID)

	return &PasswordResetRequest{
		ResetToken:          reset.Token,
		ResetTokenExpiresAt: reset.ExpiresAt,
		ResetMailRecipient:  accepted[0],
	}, nil
}

// onCooldown reports whether another reset request must wait: either the
// password changed within the TTL window, or an earlier reset token is
// still pending and unexpired. An expired pending token does not block;
// the new request supersedes it.
func (s *Service) onCooldown(u *user.User) bool {
	now := s.now()
	if now.Sub(u.PasswordLastUpdatedAt) <= s.resetTokenTTL {
		return true
	}
	if u.ResetToken != nil && u.ResetTokenExpiresAt != nil && now.Before(*u.ResetTokenExpiresAt) {
		return true
	}
	return false
}

// CheckResetToken reports whether a reset token is usable. Unknown tokens
// fail with ErrInvalidResetToken; expired tokens report IsExpired without
// revealing the account email.
func (s *Service) CheckResetToken(ctx context.Context, resetToken string) (*ResetTokenValidity, error) {
	existing, err := s.store.GetByResetToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	if s.resetTokenExpired(existing) {
		return &ResetTokenValidity{IsExpired: true}, nil
	}

	return &ResetTokenValidity{IsExpired: false, Email: existing.Email}, nil
}

// ResetPassword consumes a reset token: validates the new password, stores
// its hash, stamps passwordLastUpdatedAt and clears the token pair.
// Expired tokens are rejected here too, not only in CheckResetToken.
func (s *Service) ResetPassword(ctx context.Context, password, resetToken string) error {
	if err := s.policy.Validate(password); err != nil {
		return err
	}

	existing, err := s.store.GetByResetToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user by reset token: %w", err)
	}

	if s.resetTokenExpired(existing) {
		return ErrResetTokenExpired
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	err = s.store.UpdateByResetToken(ctx, resetToken, user.Update{
		HashedPassword:        &hashedPassword,
		PasswordLastUpdatedAt: &now,
		ClearResetToken:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.Info("password reset completed", "user_id", existing.ID)
	return nil
}

func (s *Service) resetTokenExpired(u *user.User) bool {
	// Invariant: token and expiry are set together. A token without an
	// expiry is unusable.
	if u.ResetTokenExpiresAt == nil {
		return true
	}
	return s.now().After(*u.ResetTokenExpiresAt)
}

// issueAndStore mints a token pair and persists the refresh token's hash,
// rotating out whatever was stored before.
func (s *Service) issueAndStore(ctx context.Context, userID uuid.UUID, email string) (*TokenPair, error) {
	tokens, err := s.issuer.Issue(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	hashedRefresh, err := s.hasher.Hash(tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to hash refresh token: %w", err)
	}

	err = s.store.UpdateByID(ctx, userID, user.Update{HashedRefreshToken: &hashedRefresh})
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token hash: %w", err)
	}

	return tokens, nil
}

// resetEmailBody renders the reset mail. Kept as a plain sprintf; the link
// is service-generated and needs no escaping.
func resetEmailBody(resetLink string) string {
	return fmt.Sprintf(`<h1>Hello,</h1>
      <p>You have requested to reset your password. Please click the link below to reset your password:</p>
      <p><a href="%[1]s">%[1]s</a></p>
      <p>If you didn't request this password reset, you can ignore this email.</p>
      <p>Thanks,</p>
      <p>Julien</p>`, resetLink)
}
