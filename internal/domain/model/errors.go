package model

import (
	"errors"
	"fmt"
)

var (
	ErrPortfolioNotFound = errors.New("portfolio assessment not found")
	ErrBatchTooLarge     = errors.New("batch exceeds maximum size")
	ErrInvalidSubject    = errors.New("subject id is required")
	ErrInvalidSortOrder  = errors.New("sort must be 'timestamp' or 'score'")
)

// Transaction fields named by InvalidTransactionError.
const (
	FieldID          = "id"
	FieldTimestamp   = "timestamp"
	FieldAmount      = "amount"
	FieldDirection   = "direction"
	FieldBeneficiary = "beneficiary"
)

// InvalidTransactionError reports a transaction the scorer refuses to evaluate.
type InvalidTransactionError struct {
	TransactionID string
	Field         string
	Reason        string
}

func (e *InvalidTransactionError) Error() string {
	if e.TransactionID == "" {
		return fmt.Sprintf("invalid transaction: field '%s': %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid transaction %s: field '%s': %s", e.TransactionID, e.Field, e.Reason)
}

// NewInvalidTransaction builds an InvalidTransactionError.
func NewInvalidTransaction(transactionID, field, reason string) *InvalidTransactionError {
	return &InvalidTransactionError{
		TransactionID: transactionID,
		Field:         field,
		Reason:        reason,
	}
}

// IsInvalidTransaction reports whether err wraps an InvalidTransactionError.
func IsInvalidTransaction(err error) bool {
	var invalid *InvalidTransactionError
	return errors.As(err, &invalid)
}
