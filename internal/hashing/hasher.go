package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"storefront/internal/config"
)

var ErrInvalidHash = errors.New("invalid hash format")

const (
	saltLength = 16
	keyLength  = 32
)

// Argon2Params control the cost of argon2id hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

// Hasher produces and verifies argon2id hashes for passwords and
// verification codes. A server-side pepper from config is mixed into every
// hash; old peppers stay configured so existing hashes keep verifying.
type Hasher struct {
	params  Argon2Params
	peppers []string
}

func NewHasher(cfg *config.Config) *Hasher {
	peppers := cfg.Hashing.Peppers
	if len(peppers) == 0 {
		peppers = []string{""}
	}
	return &Hasher{
		params: Argon2Params{
			Memory:      uint32(cfg.Hashing.Argon2MemoryCost),
			Iterations:  uint32(cfg.Hashing.Argon2TimeCost),
			Parallelism: uint8(cfg.Hashing.Argon2Parallelism),
		},
		peppers: peppers,
	}
}

// HashPassword hashes an account password.
func (h *Hasher) HashPassword(password string) (string, error) {
	return h.hash(password, "password")
}

// VerifyPassword checks a password against its encoded hash.
func (h *Hasher) VerifyPassword(password, encoded string) (bool, error) {
	return h.verify(password, encoded, "password")
}

// HashCode hashes a one-time verification code.
func (h *Hasher) HashCode(code string) (string, error) {
	return h.hash(code, "code")
}

// VerifyCode checks a one-time code against its encoded hash.
func (h *Hasher) VerifyCode(code, encoded string) (bool, error) {
	return h.verify(code, encoded, "code")
}

// hash produces an encoded string of the form
// argon2id$v=19$m=65536,t=3,p=2$pep=1$<salt>$<hash> with base64 raw-url
// encoded salt and key. The context string keeps hashes from being reused
// across purposes.
func (h *Hasher) hash(data, context string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	pepperVersion := len(h.peppers) // versions are 1-based
	peppered := data + h.peppers[pepperVersion-1] + context

	key := argon2.IDKey(
		[]byte(peppered),
		salt,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		keyLength,
	)

	return fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$pep=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		pepperVersion,
		base64.RawURLEncoding.EncodeToString(salt),
		base64.RawURLEncoding.EncodeToString(key),
	), nil
}

func (h *Hasher) verify(data, encoded, context string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil {
		return false, ErrInvalidHash
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: incompatible argon2 version %d", ErrInvalidHash, version)
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, ErrInvalidHash
	}

	var pepperVersion int
	if _, err := fmt.Sscanf(parts[3], "pep=%d", &pepperVersion); err != nil {
		return false, ErrInvalidHash
	}
	if pepperVersion < 1 || pepperVersion > len(h.peppers) {
		return false, fmt.Errorf("%w: unknown pepper version %d", ErrInvalidHash, pepperVersion)
	}

	salt, err := base64.RawURLEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	expected, err := base64.RawURLEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrInvalidHash
	}

	peppered := data + h.peppers[pepperVersion-1] + context
	computed := argon2.IDKey([]byte(peppered), salt, iterations, memory, parallelism, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
