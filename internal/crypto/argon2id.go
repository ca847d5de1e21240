package crypto

import (
	"fmt"

	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/alexedwards/argon2id"
)

type Argon2idHasher struct {
	params *argon2id.Params
}

// NewArgon2idHasher creates a new hasher with the specified difficulty parameters.
//
// memory must be provided in Kilobytes (KB).
func NewArgon2idHasher(time, memory, keyLength, saltLength uint32, parallelism uint8) *Argon2idHasher {
	return &Argon2idHasher{
		params: &argon2id.Params{
			Memory:      memory,
			Iterations:  time,
			Parallelism: parallelism,
			SaltLength:  saltLength,
			KeyLength:   keyLength,
		},
	}
}

func (h *Argon2idHasher) Hash(secret string) (string, error) {
	hash, err := argon2id.CreateHash(secret, h.params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrHashing, err)
	}
	return hash, nil
}

// Compare verifies a secret against a hash.
func (h *Argon2idHasher) Compare(hash, secret string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(secret, hash)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrHashing, err)
	}
	return match, nil
}
