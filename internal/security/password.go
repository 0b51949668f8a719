package security

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"sync"
)

// Algorithm names accepted by NewPasswordHasher.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// randomSecretBytes is the entropy of secrets from GenerateRandomSecret.
const randomSecretBytes = 32

// PasswordHasher hashes new passwords with one configured algorithm and
// verifies stored hashes of either supported format.
type PasswordHasher struct {
	algorithm string
	bcrypt    *Hasher
	argon2    *Argon2Hasher

	dummyOnce sync.Once
	dummy     string
}

// NewPasswordHasher returns a hasher that creates hashes with algorithm
// (bcrypt unless "argon2id").
func NewPasswordHasher(algorithm string, bcryptCost int) *PasswordHasher {
	if algorithm != AlgorithmArgon2id {
		algorithm = AlgorithmBcrypt
	}
	return &PasswordHasher{
		algorithm: algorithm,
		bcrypt:    NewHasher(bcryptCost),
		argon2:    NewArgon2Hasher(Argon2Params{}),
	}
}

// Algorithm returns the algorithm used for new hashes.
func (h *PasswordHasher) Algorithm() string {
	return h.algorithm
}

// Hash hashes password with the configured algorithm.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return h.argon2.Hash(password)
	}
	return h.bcrypt.Hash(password)
}

// Compare verifies password against hash, picking the algorithm from the
// hash prefix. Mismatch is (false, nil).
func (h *PasswordHasher) Compare(password, hash string) (bool, error) {
	if strings.HasPrefix(hash, argon2Prefix) {
		return h.argon2.Compare(password, hash)
	}
	if strings.HasPrefix(hash, "$2") {
		return h.bcrypt.Compare(password, hash)
	}
	return false, ErrInvalidHash
}

// GenerateRandomSecret returns 32 random bytes encoded as unpadded base64url.
func (h *PasswordHasher) GenerateRandomSecret() (string, error) {
	return GenerateRandomSecret()
}

// DummyHash returns a hash of a random secret in the configured algorithm.
// Comparing against it costs the same as a real verification. Computed once.
func (h *PasswordHasher) DummyHash() string {
	h.dummyOnce.Do(func() {
		secret, err := GenerateRandomSecret()
		if err != nil {
			secret = "authcore-dummy-secret"
		}
		if hash, err := h.Hash(secret); err == nil {
			h.dummy = hash
		}
	})
	return h.dummy
}

// GenerateRandomSecret returns 32 random bytes encoded as unpadded base64url.
func GenerateRandomSecret() (string, error) {
	b := make([]byte, randomSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
