package catalog

import "errors"

var (
	ErrMissingFile   = errors.New("catalog-file-missing")
	ErrMalformedFile = errors.New("catalog-file-malformed")
	ErrInvalidEntry  = errors.New("catalog-invalid-entry")
)
