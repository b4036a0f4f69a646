package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeBcrypt       = "bcrypt"
	SchemeLegacySHA256 = "legacy-sha256"
)

// PasswordHasher hashes new passwords with the configured scheme and verifies
// stored digests of either scheme.
type PasswordHasher struct {
	scheme     string
	bcryptCost int
}

func NewPasswordHasher(scheme string, bcryptCost int) *PasswordHasher {
	if scheme == "" {
		scheme = SchemeBcrypt
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &PasswordHasher{scheme: scheme, bcryptCost: bcryptCost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	switch h.scheme {
	case SchemeLegacySHA256:
		return legacyDigest(password), nil
	case SchemeBcrypt:
		hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return string(hash), nil
	default:
		return "", fmt.Errorf("unknown password scheme %q", h.scheme)
	}
}

func (h *PasswordHasher) Verify(password, digest string) bool {
	if isBcrypt(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	}
	// the stored hex must match exactly, case included
	expected := legacyDigest(password)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(digest)) == 1
}

// NeedsRehash reports whether digest was produced by a scheme other than the
// configured one.
func (h *PasswordHasher) NeedsRehash(digest string) bool {
	if h.scheme != SchemeBcrypt {
		return false
	}
	if !isBcrypt(digest) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(digest))
	return err == nil && cost < h.bcryptCost
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2")
}

func legacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
