package paymentsapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/valueobject"
)

// wireTransaction is the backend's transaction record. Older producers send
// camelCase flags and created_at instead of timestamp; both are accepted.
// Any risk score the backend attaches is ignored.
type wireTransaction struct {
	Timestamp             *time.Time      `json:"timestamp"`
	CreatedAt             *time.Time      `json:"created_at"`
	IsNewBeneficiary      *bool           `json:"is_new_beneficiary"`
	IsNewBeneficiaryCamel *bool           `json:"isNewBeneficiary"`
	ID                    json.RawMessage `json:"id"`
	Direction             string          `json:"direction"`
	Beneficiary           string          `json:"beneficiary"`
	Amount                json.RawMessage `json:"amount"`
}

// toModel maps the record to a Transaction. Missing or unknown values are
// left zero, and an absent or unparseable amount is flagged, so validation
// rejects the record on the right field.
func (w wireTransaction) toModel() model.Transaction {
	tx := model.Transaction{
		ID:          unquote(w.ID),
		Beneficiary: w.Beneficiary,
	}

	switch {
	case w.Timestamp != nil:
		tx.Timestamp = *w.Timestamp
	case w.CreatedAt != nil:
		tx.Timestamp = *w.CreatedAt
	}

	switch {
	case w.IsNewBeneficiary != nil:
		tx.IsNewBeneficiary = *w.IsNewBeneficiary
	case w.IsNewBeneficiaryCamel != nil:
		tx.IsNewBeneficiary = *w.IsNewBeneficiaryCamel
	}

	if dir, err := valueobject.DirectionFromString(w.Direction); err == nil {
		tx.Direction = dir
	}

	tx.Amount, tx.AmountIssue = parseAmount(w.Amount)

	return tx
}

// parseAmount returns the decoded amount, or a rejection reason when the
// value is absent, null or not a number.
func parseAmount(raw json.RawMessage) (decimal.Decimal, string) {
	s := unquote(raw)
	if s == "" {
		return decimal.Zero, "is required"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Sprintf("is not a number: %q", s)
	}
	return d, ""
}

// unquote renders a JSON string or number as plain text; null is empty.
func unquote(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}
