package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	testAccessSecret  = []byte("access-secret-for-tests")
	testRefreshSecret = []byte("refresh-secret-for-tests")
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
}

func TestTokenIssuer_Issue(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer()
	userID := uuid.New()

	pair, err := issuer.Issue(userID, "john@doe.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("Issue returned empty token: %+v", pair)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("access and refresh tokens are identical")
	}

	accessClaims, err := issuer.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	refreshClaims, err := issuer.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh error: %v", err)
	}

	for _, claims := range []*TokenClaims{accessClaims, refreshClaims} {
		gotID, err := claims.UserID()
		if err != nil {
			t.Fatalf("UserID error: %v", err)
		}
		if gotID != userID {
			t.Fatalf("subject = %v, want %v", gotID, userID)
		}
		if claims.Email != "john@doe.com" {
			t.Fatalf("email = %q, want %q", claims.Email, "john@doe.com")
		}
	}
}

func TestTokenIssuer_SecretsAreIndependent(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer()

	pair, err := issuer.Issue(uuid.New(), "john@doe.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// A token signed with one secret must not verify against the other;
	// otherwise a leaked access secret could forge refresh tokens.
	if _, err := issuer.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyRefresh(accessToken) = %v, want ErrInvalidToken", err)
	}
	if _, err := issuer.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyAccess(refreshToken) = %v, want ErrInvalidToken", err)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer(testAccessSecret, testRefreshSecret, -time.Minute, -time.Minute)

	pair, err := issuer.Issue(uuid.New(), "john@doe.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := issuer.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("VerifyAccess(expired) = %v, want ErrExpiredToken", err)
	}
	if _, err := issuer.VerifyRefresh(pair.RefreshToken); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("VerifyRefresh(expired) = %v, want ErrExpiredToken", err)
	}
}

func TestTokenIssuer_Malformed(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer()

	if _, err := issuer.VerifyAccess("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyAccess(malformed) = %v, want ErrInvalidToken", err)
	}
}

func TestTokenIssuer_DistinctLifetimes(t *testing.T) {
	t.Parallel()

	// Fixed clock for deterministic expiry claims; truncated because
	// NumericDate carries second precision.
	now := time.Now().Truncate(time.Second)
	issuer := newTestIssuer()
	issuer.now = func() time.Time { return now }

	pair, err := issuer.Issue(uuid.New(), "john@doe.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	accessClaims, err := issuer.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	refreshClaims, err := issuer.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh error: %v", err)
	}

	if got := accessClaims.ExpiresAt.Time; !got.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("access expiry = %v, want %v", got, now.Add(15*time.Minute))
	}
	if got := refreshClaims.ExpiresAt.Time; !got.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("refresh expiry = %v, want %v", got, now.Add(7*24*time.Hour))
	}
}
