package match

import "errors"

var (
	ErrInvalidCandidate = errors.New("invalid candidate")
	ErrNotFound         = errors.New("player not found")
	ErrInvalidSpeed     = errors.New("speed out of range")
)
