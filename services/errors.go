package services

import (
	"errors"
	"fmt"

	"storefront/repositories"
)

var (
	ErrNotFound           = repositories.ErrNotFound
	ErrProtected          = repositories.ErrProtected
	ErrBadReference       = repositories.ErrBadReference
	ErrForbidden          = errors.New("permission denied")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrStorage            = errors.New("file storage failed")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// storageErr keeps the storage cause visible to errors.Is, so a rejected file
// (libs.ErrFileTooLarge) still reads as a client error.
func storageErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, what, err)
}
