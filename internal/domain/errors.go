package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNoCandidate        = errors.New("no candidate found")
	ErrBinsEmpty          = errors.New("no stocked category under quota")
	ErrUnpriceable        = errors.New("item cannot be priced")
	ErrUnsupportedQuality = errors.New("unsupported quality tier")
	ErrInvalidCommand     = errors.New("invalid segment command")
)
