package model

import "errors"

var (
	// Token store errors
	ErrTokenNotFound = errors.New("token not found")

	// Animal related errors
	ErrAnimalNotFound = errors.New("animal not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
