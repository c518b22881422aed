package cryptox

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)

	digest, err := h.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if digest == "correct horse battery" {
		t.Fatalf("digest must not equal plaintext")
	}
	if !h.Verify("correct horse battery", digest) {
		t.Fatalf("expected Verify to accept the original password")
	}
	if h.Verify("correct horse battery!", digest) {
		t.Fatalf("expected Verify to reject a different password")
	}
}

func TestPasswordHasher_SaltsEachHash(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	a, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	b, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestPasswordHasher_VerifyMalformedDigest(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	for _, digest := range []string{"", "not-a-hash", "$2a$10$short"} {
		if h.Verify("anything", digest) {
			t.Fatalf("malformed digest %q must not verify", digest)
		}
	}
}

func TestPasswordHasher_TooLong(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatalf("expected error for password longer than 72 bytes")
	}
}

func TestNewPasswordHasher_CostFallback(t *testing.T) {
	t.Parallel()

	if got := NewPasswordHasher(1).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost below minimum: got %d want %d", got, bcrypt.DefaultCost)
	}
	if got := NewPasswordHasher(bcrypt.MaxCost + 1).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost above maximum: got %d want %d", got, bcrypt.DefaultCost)
	}

	var zero PasswordHasher
	digest, err := zero.Hash("pw")
	if err != nil {
		t.Fatalf("zero-value Hash error: %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(digest)); cost != bcrypt.DefaultCost {
		t.Fatalf("zero-value cost: got %d want %d", cost, bcrypt.DefaultCost)
	}
}
