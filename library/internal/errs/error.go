package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
)

var (
	ErrBookNotFound      = fmt.Errorf("book %w", ErrNotFound)
	ErrBorrowingNotFound = fmt.Errorf("borrowing %w", ErrNotFound)
	ErrReviewNotFound    = fmt.Errorf("review %w", ErrNotFound)
	ErrGenreNotFound     = fmt.Errorf("genre %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrWishlistNotFound  = fmt.Errorf("wishlist item %w", ErrNotFound)

	ErrOutOfStock              = fmt.Errorf("%w: no copies available", ErrConflict)
	ErrAlreadyBorrowed         = fmt.Errorf("%w: book is already borrowed by user", ErrConflict)
	ErrAlreadyWishlisted       = fmt.Errorf("%w: book already in wishlist", ErrConflict)
	ErrAlreadyReturned         = fmt.Errorf("%w: borrowing is already returned", ErrConflict)
	ErrInvalidTransition       = fmt.Errorf("%w: invalid status transition", ErrConflict)
	ErrBookHasActiveBorrowings = fmt.Errorf("%w: book has active borrowings", ErrConflict)
	ErrGenreExists             = fmt.Errorf("%w: genre already exists", ErrConflict)
	ErrEmailTaken              = fmt.Errorf("%w: email is already registered", ErrConflict)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
