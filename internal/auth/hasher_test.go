package auth

import (
	"strings"
	"testing"
)

func TestHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewHasher()

	secrets := []string{
		"Sup3r$ecret",
		"a",
		"",
		strings.Repeat("long-refresh-token-material.", 10),
	}

	for _, secret := range secrets {
		hash, err := h.Hash(secret)
		if err != nil {
			t.Fatalf("Hash(%q) error: %v", secret, err)
		}
		if !strings.HasPrefix(hash, "$argon2id$") {
			t.Fatalf("hash %q is not argon2id encoded", hash)
		}
		if !h.Verify(hash, secret) {
			t.Fatalf("Verify(Hash(%q), %q) = false, want true", secret, secret)
		}
		if h.Verify(hash, secret+"x") {
			t.Fatalf("Verify accepted wrong secret for %q", secret)
		}
	}
}

func TestHasher_SaltedOutputDiffers(t *testing.T) {
	t.Parallel()

	h := NewHasher()

	first, err := h.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := h.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if first == second {
		t.Fatalf("two hashes of the same secret are identical; salt missing")
	}
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	t.Parallel()

	h := NewHasher()

	malformed := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536,t=3,p=4$salt", // wrong part count
		"$argon2id$v=19$m=x,t=y,p=z$Zm9v$YmFy",
		"$argon2id$v=19$m=65536,t=3,p=4$!!!$YmFy", // invalid base64 salt
	}

	for _, hash := range malformed {
		if h.Verify(hash, "whatever") {
			t.Fatalf("Verify(%q) = true, want false", hash)
		}
	}
}
