package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeOfferNotFound   = "EXC001"
	ErrCodeInvalidOffer    = "EXC002"
	ErrCodeIllegalState    = "EXC003"
	ErrCodeConflict        = "EXC004"
	ErrCodeVersionMismatch = "EXC005"
	ErrCodeNotParticipant  = "EXC006"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrOfferNotFound   = errors.New("offer not found")
	ErrInvalidOffer    = errors.New("invalid offer")
	ErrIllegalState    = errors.New("offer is not in a state that allows this operation")
	ErrConflict        = errors.New("conflicting operation on the same book")
	ErrVersionMismatch = errors.New("version mismatch - concurrent modification detected")
	ErrNotParticipant  = errors.New("user is not a participant of this offer")
)

// ExchangeError wraps lỗi domain với code cho HTTP layer
type ExchangeError struct {
	Code    string
	Message string
	Err     error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

func NewExchangeError(code, message string, err error) *ExchangeError {
	return &ExchangeError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
