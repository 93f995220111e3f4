package domain

import "errors"

// Domain errors
var (
	ErrEmptyDocument = errors.New("document contains no text")
	ErrNoPages       = errors.New("document has no pages")
	ErrMissingPart   = errors.New("required document part missing")
)
