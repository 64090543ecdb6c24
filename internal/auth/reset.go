package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	resetTokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	resetTokenLength   = 32
)

// ResetToken is an opaque single-use password-reset capability with an
// absolute expiry.
type ResetToken struct {
	Token     string
	ExpiresAt time.Time
}

// ResetTokenGenerator produces reset tokens: 32 characters uniformly
// sampled with replacement from the alphanumeric alphabet, expiring TTL
// from now. Collisions are treated as negligible and not checked.
//
// The clock and random index function are injectable so tests can pin both.
type ResetTokenGenerator struct {
	ttl time.Duration

	now  func() time.Time
	intn func(n int) (int, error)
}

func NewResetTokenGenerator(ttl time.Duration) *ResetTokenGenerator {
	return &ResetTokenGenerator{
		ttl:  ttl,
		now:  time.Now,
		intn: cryptoIntn,
	}
}

// Generate produces a fresh token and its expiry timestamp.
func (g *ResetTokenGenerator) Generate() (*ResetToken, error) {
	buf := make([]byte, resetTokenLength)
	for i := range buf {
		idx, err := g.intn(len(resetTokenAlphabet))
		if err != nil {
			return nil, fmt.Errorf("failed to generate reset token: %w", err)
		}
		buf[i] = resetTokenAlphabet[idx]
	}

	return &ResetToken{
		Token:     string(buf),
		ExpiresAt: g.now().Add(g.ttl),
	}, nil
}

// cryptoIntn returns a uniform random int in [0, n) from crypto/rand.
func cryptoIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
