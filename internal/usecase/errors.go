package usecase

import "errors"

var (
	// ErrInvalidQuestion wraps a message fit to show the user.
	ErrInvalidQuestion = errors.New("invalid question")

	ErrInvalidConfig = errors.New("invalid generation config")
)
