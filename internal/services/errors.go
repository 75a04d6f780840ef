package services

import "errors"

// --- Custom Service Errors ---
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyComplete    = errors.New("all punches for the day are already recorded")
	ErrInvalidTransition  = errors.New("request has already been processed")
	ErrConflict           = errors.New("record was changed by another request, try again")
	ErrUnauthorized       = errors.New("not allowed to access this resource")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
)
