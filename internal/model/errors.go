package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")

	// Game errors
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidBoard     = errors.New("invalid board")
)
