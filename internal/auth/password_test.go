package auth

import (
	"strings"
	"testing"
)

// Low iteration count keeps the derivation fast in tests; NewHasher raises
// anything below the minimum to the default, so construct directly.
func testHasher() *Hasher {
	return &Hasher{iterations: 1000}
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(hash, "1000$") {
		t.Errorf("expected iteration count prefix, got %q", hash[:12])
	}
	if want := len("1000$") + (saltLength+keyLength)*2; len(hash) != want {
		t.Errorf("expected hash length %d, got %d", want, len(hash))
	}

	if !h.Verify(hash, "correct horse battery staple") {
		t.Error("expected matching password to verify")
	}
	if h.Verify(hash, "wrong password") {
		t.Error("expected non-matching password to fail")
	}
}

func TestHasher_HashIsSalted(t *testing.T) {
	h := testHasher()

	first, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Error("expected distinct hashes for the same password")
	}
	if !h.Verify(first, "same password") || !h.Verify(second, "same password") {
		t.Error("expected both hashes to verify")
	}
}

func TestHasher_EmptyPassword(t *testing.T) {
	h := testHasher()

	if _, err := h.Hash(""); err != ErrPasswordEmpty {
		t.Errorf("expected ErrPasswordEmpty, got %v", err)
	}
}

func TestHasher_VerifyDegenerateInputs(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("a password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		stored    string
		plaintext string
	}{
		{"empty stored hash", "", "a password"},
		{"empty plaintext", hash, ""},
		{"truncated stored hash", hash[:10], "a password"},
		{"missing iteration prefix", strings.TrimPrefix(hash, "1000$"), "a password"},
		{"non-numeric iteration prefix", "abc$" + strings.TrimPrefix(hash, "1000$"), "a password"},
		{"zero iteration prefix", "0$" + strings.TrimPrefix(hash, "1000$"), "a password"},
		{"non-hex stored hash", "1000$" + strings.Repeat("z", (saltLength+keyLength)*2), "a password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if h.Verify(tt.stored, tt.plaintext) {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestHasher_VerifyUsesStoredIterations(t *testing.T) {
	old := &Hasher{iterations: 1000}
	hash, err := old.Hash("a password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Hashes created under a lower configured count keep verifying after
	// the count is raised.
	raised := &Hasher{iterations: 4000}
	if !raised.Verify(hash, "a password") {
		t.Error("expected hash from an older iteration count to verify")
	}
	if raised.Verify(hash, "wrong password") {
		t.Error("expected non-matching password to fail")
	}
}

func TestNewHasher_RaisesLowIterations(t *testing.T) {
	h := NewHasher(10)
	if h.iterations != DefaultHashIterations {
		t.Errorf("expected iterations raised to %d, got %d", DefaultHashIterations, h.iterations)
	}

	h = NewHasher(MinHashIterations)
	if h.iterations != MinHashIterations {
		t.Errorf("expected iterations kept at %d, got %d", MinHashIterations, h.iterations)
	}
}
