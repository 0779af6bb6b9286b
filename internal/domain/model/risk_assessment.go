package model

import (
	"time"

	"github.com/bibbank/riskwatch/internal/domain/valueobject"
)

// StandardBehaviorFactor is reported when no labelled rule fired.
const StandardBehaviorFactor = "Standard Behavior"

// Contribution records one rule that added points to a score. Label is empty
// for rules that contribute silently.
type Contribution struct {
	Rule   string `json:"rule"`
	Label  string `json:"label,omitempty"`
	Points int    `json:"points"`
}

// RiskAssessment is the scorer's verdict for one transaction.
type RiskAssessment struct {
	TransactionID  string
	Level          valueobject.RiskLevel
	Recommendation valueobject.Recommendation
	Factors        []string
	Contributions  []Contribution
	Score          int
}

// RawScore is the unclamped sum of all contributions.
func (a RiskAssessment) RawScore() int {
	total := 0
	for _, c := range a.Contributions {
		total += c.Points
	}
	return total
}

// ScoredTransaction pairs a transaction with its assessment for presentation.
type ScoredTransaction struct {
	Transaction Transaction
	Assessment  RiskAssessment
}

// RiskAlert is a stored HIGH verdict together with the assessment that produced it.
type RiskAlert struct {
	AssessedAt   time.Time
	AssessmentID string
	Scored       ScoredTransaction
}

// RejectedTransaction is a batch member the scorer refused.
type RejectedTransaction struct {
	Err           *InvalidTransactionError
	TransactionID string
}
