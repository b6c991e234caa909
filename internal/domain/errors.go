package domain

import "errors"

var (
	ErrEmptyQuery          = errors.New("empty query")
	ErrQueryTooLong        = errors.New("query too long")
	ErrInvalidMaxRetailers = errors.New("max retailers must be between 1 and 20")
	ErrInvalidMaxRetries   = errors.New("max retries must be between 1 and 10")
)

var ErrIndexOutOfBand = errors.New("candidate index out of range")

var (
	ErrRunNotFound  = errors.New("search run not found")
	ErrDuplicateRun = errors.New("search run already exists")
)
