package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

const testAdminKey = "provisioning-key-for-tests"

// newTestAdminKey hashes with the minimum bcrypt cost to keep tests fast.
func newTestAdminKey(t *testing.T) *AdminKey {
	t.Helper()
	hash, err := HashAdminKey(testAdminKey, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashAdminKey: %v", err)
	}
	k, err := NewAdminKey(hash)
	if err != nil {
		t.Fatalf("NewAdminKey: %v", err)
	}
	return k
}

func TestHashAdminKey_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"too short", "short", true},
		{"exactly 72 bytes", strings.Repeat("a", 72), false},
		{"over 72 bytes", strings.Repeat("a", 73), true},
		{"normal", testAdminKey, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashAdminKey(tt.key, bcrypt.MinCost)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HashAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !strings.HasPrefix(hash, "$2a$") {
				t.Errorf("hash %q does not look like bcrypt", hash)
			}
		})
	}
}

func TestNewAdminKey_RejectsGarbage(t *testing.T) {
	if _, err := NewAdminKey("not-a-hash"); err == nil {
		t.Error("NewAdminKey() should reject a non-bcrypt string")
	}
}

func TestAdminKey_Verify(t *testing.T) {
	k := newTestAdminKey(t)

	if err := k.Verify(testAdminKey); err != nil {
		t.Errorf("Verify(correct) error = %v", err)
	}
	if err := k.Verify("wrong-key-wrong-key"); !errors.Is(err, ErrInvalidAdminKey) {
		t.Errorf("Verify(wrong) error = %v, want ErrInvalidAdminKey", err)
	}
	if err := k.Verify(""); !errors.Is(err, ErrInvalidAdminKey) {
		t.Errorf("Verify(empty) error = %v, want ErrInvalidAdminKey", err)
	}
}
