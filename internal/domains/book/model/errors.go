package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeBookNotFound     = "BOK001"
	ErrCodeNotOwner         = "BOK002"
	ErrCodeBookNotAvailable = "BOK003"
	ErrCodeVersionMismatch  = "BOK004"
	ErrCodeInvalidBook      = "BOK005"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrNotOwner         = errors.New("book does not belong to user")
	ErrBookNotAvailable = errors.New("book is not available")
	ErrVersionMismatch  = errors.New("version mismatch - concurrent modification detected")
	ErrInvalidBook      = errors.New("invalid book")
)

// BookError wraps một lỗi domain với code cho HTTP layer
type BookError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *BookError) Unwrap() error {
	return e.Err
}

func NewBookError(code, message string, err error) *BookError {
	return &BookError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
