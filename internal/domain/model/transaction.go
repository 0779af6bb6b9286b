package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/riskwatch/internal/domain/valueobject"
)

// Transaction is a single payment event in canonical form. Acquisition
// adapters are responsible for producing it; the engine never reads any
// other shape.
type Transaction struct {
	Timestamp        time.Time
	Amount           decimal.Decimal
	Direction        valueobject.Direction
	ID               string
	Beneficiary      string
	IsNewBeneficiary bool

	// AmountIssue is set by an adapter when the source amount was absent or
	// unreadable. Amount is zero in that case and must not be scored.
	AmountIssue string
}

// Validate checks the fields the scorer depends on and names the first
// offending one.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return NewInvalidTransaction(t.ID, FieldID, "is required")
	}
	if t.Timestamp.IsZero() {
		return NewInvalidTransaction(t.ID, FieldTimestamp, "is required")
	}
	if t.AmountIssue != "" {
		return NewInvalidTransaction(t.ID, FieldAmount, t.AmountIssue)
	}
	if t.Amount.IsNegative() {
		return NewInvalidTransaction(t.ID, FieldAmount, "must not be negative")
	}
	if t.Direction.IsZero() {
		return NewInvalidTransaction(t.ID, FieldDirection, "must be DEBIT or CREDIT")
	}
	if strings.TrimSpace(t.Beneficiary) == "" {
		return NewInvalidTransaction(t.ID, FieldBeneficiary, "is required")
	}
	return nil
}
