package domain

import "errors"

var (
	ErrDatabase           = errors.New("database-error")
	ErrMatchNotFound      = errors.New("match-not-found")
	ErrDuplicateMatchId   = errors.New("duplicate-match-id")
	ErrArchiveUnavailable = errors.New("archive-unavailable")
)

var ErrHashing = errors.New("hashing-error")

var (
	ErrToken                 = errors.New("token-error")
	ErrInvalidSigningAlg     = errors.New("invalid-signing-method")
	ErrExpiredToken          = errors.New("expired-token")
	ErrInvalidTokenSignature = errors.New("invalid-token-signature")
	ErrCorruptedToken        = errors.New("corrupted-token")
)
