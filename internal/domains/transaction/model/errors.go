package model

import "errors"

const (
	ErrCodeTransactionNotFound = "TRX001"
	ErrCodeInvalidQuery        = "TRX002"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidQuery        = errors.New("invalid transaction query")
)

type TransactionError struct {
	Code    string
	Message string
	Err     error
}

func (e *TransactionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func NewTransactionError(code, message string, err error) *TransactionError {
	return &TransactionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
