package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrDraftExists   = errors.New("an empty note already exists")
	ErrRowOutOfRange = errors.New("row out of range")
	ErrUnavailable   = errors.New("note store unavailable")
)
