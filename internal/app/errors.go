package app

import "errors"

// Sentinel errors for common application errors
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoInput         = errors.New("no job description given: use --jd-text, --jd-file or --jd-id")
)
