package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminKeyHeader carries the provisioning key on admin requests.
const AdminKeyHeader = "X-Admin-Key"

// DefaultKeyCost is the bcrypt work factor used when hashing a new admin key.
const DefaultKeyCost = 12

// ErrInvalidAdminKey is returned when a presented key does not match.
var ErrInvalidAdminKey = errors.New("auth: invalid admin key")

// AdminKey verifies the provisioning key against a stored bcrypt hash, so
// the plaintext key never sits in the server's config.
type AdminKey struct {
	hash []byte
}

// NewAdminKey wraps a bcrypt hash produced by HashAdminKey
// (or `heardlectl admin hash-key`).
func NewAdminKey(hash string) (*AdminKey, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("auth: admin key hash is not a bcrypt hash: %w", err)
	}
	return &AdminKey{hash: []byte(hash)}, nil
}

// HashAdminKey hashes a plaintext key. bcrypt ignores everything past 72
// bytes, so longer keys are rejected instead of silently truncated.
func HashAdminKey(plaintext string, cost int) (string, error) {
	if len(plaintext) < 16 {
		return "", fmt.Errorf("auth: admin key must be at least 16 characters")
	}
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: admin key must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing admin key: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches the stored hash. The
// comparison is constant-time.
func (k *AdminKey) Verify(plaintext string) error {
	err := bcrypt.CompareHashAndPassword(k.hash, []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidAdminKey
		}
		return fmt.Errorf("auth: comparing admin key: %w", err)
	}
	return nil
}
