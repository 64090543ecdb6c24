package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TokenPair is an access/refresh token pair. The access token is
// bearer-only and never stored server-side; the refresh token's argon2id
// hash is persisted on the user row so it can be invalidated.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenClaims is the payload asserted by both tokens.
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 access/refresh token pairs bound to a user
// identity. The two secrets are independent, as are the lifetimes.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Issue signs both tokens for the given identity. The two signatures are
// independent computations and run concurrently.
func (t *TokenIssuer) Issue(userID uuid.UUID, email string) (*TokenPair, error) {
	pair := &TokenPair{}

	var g errgroup.Group
	g.Go(func() error {
		tok, err := t.sign(userID, email, t.accessSecret, t.accessTTL)
		if err != nil {
			return err
		}
		pair.AccessToken = tok
		return nil
	})
	g.Go(func() error {
		tok, err := t.sign(userID, email, t.refreshSecret, t.refreshTTL)
		if err != nil {
			return err
		}
		pair.RefreshToken = tok
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return pair, nil
}

func (t *TokenIssuer) sign(userID uuid.UUID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := t.now()
	claims := TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess validates an access token and returns its claims.
func (t *TokenIssuer) VerifyAccess(tokenStr string) (*TokenClaims, error) {
	return t.verify(tokenStr, t.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims. The
// service still compares the raw token against the stored hash afterwards;
// a valid signature alone does not survive rotation.
func (t *TokenIssuer) VerifyRefresh(tokenStr string) (*TokenClaims, error) {
	return t.verify(tokenStr, t.refreshSecret)
}

func (t *TokenIssuer) verify(tokenStr string, secret []byte) (*TokenClaims, error) {
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// UserID parses the subject claim back into a user ID.
func (c *TokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
