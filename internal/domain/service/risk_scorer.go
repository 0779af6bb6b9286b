package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/valueobject"
)

// Rule identifiers recorded in each Contribution.
const (
	RuleAmountHigh     = "amount_high"
	RuleAmountMedium   = "amount_medium"
	RuleNewBeneficiary = "new_beneficiary"
	RuleLateNight      = "late_night"
	RuleDebit          = "debit"
)

// Factor labels shown to analysts.
const (
	FactorLargeAmountHigh   = "Large Amount (High)"
	FactorLargeAmountMedium = "Large Amount (Medium)"
	FactorNewBeneficiary    = "New/Untrusted Beneficiary"
	FactorLateNight         = "Unusual Transaction Time (Late Night)"
	FactorDebit             = "Debit Transaction"
)

const (
	pointsAmountHigh     = 35
	pointsAmountMedium   = 15
	pointsNewBeneficiary = 40
	pointsLateNight      = 20
	pointsDebit          = 5

	maxScore = 100

	// Late night covers [23:00, 24:00) and [00:00, 06:00).
	lateNightStartHour = 23
	lateNightEndHour   = 5
)

var (
	highAmountThreshold   = decimal.NewFromInt(15000)
	mediumAmountThreshold = decimal.NewFromInt(5000)
)

// RiskScorer is a domain service that scores transactions with a fixed,
// ordered set of additive rules.
type RiskScorer struct {
	location   *time.Location
	labelDebit bool
}

// Option configures a RiskScorer.
type Option func(*RiskScorer)

// WithLocation sets the zone in which the late-night hour is evaluated.
// A nil location is ignored.
func WithLocation(loc *time.Location) Option {
	return func(s *RiskScorer) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithDebitFactor makes the debit rule report a "Debit Transaction" factor
// instead of contributing silently.
func WithDebitFactor(enabled bool) Option {
	return func(s *RiskScorer) {
		s.labelDebit = enabled
	}
}

// NewRiskScorer creates a RiskScorer evaluating hours in UTC unless configured otherwise.
func NewRiskScorer(opts ...Option) *RiskScorer {
	s := &RiskScorer{location: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone used for the late-night rule.
func (s *RiskScorer) Location() *time.Location {
	return s.location
}

// Score evaluates a transaction. Rules run in a fixed order and accumulate;
// the total saturates at 100. Malformed input is rejected with an
// *model.InvalidTransactionError.
func (s *RiskScorer) Score(tx model.Transaction) (model.RiskAssessment, error) {
	if err := tx.Validate(); err != nil {
		return model.RiskAssessment{}, err
	}

	contributions := make([]model.Contribution, 0, 4)
	factors := make([]string, 0, 4)
	add := func(rule string, points int, label string) {
		contributions = append(contributions, model.Contribution{Rule: rule, Points: points, Label: label})
		if label != "" {
			factors = append(factors, label)
		}
	}

	// Rule: amount tier (mutually exclusive).
	switch {
	case tx.Amount.GreaterThan(highAmountThreshold):
		add(RuleAmountHigh, pointsAmountHigh, FactorLargeAmountHigh)
	case tx.Amount.GreaterThan(mediumAmountThreshold):
		add(RuleAmountMedium, pointsAmountMedium, FactorLargeAmountMedium)
	}

	// Rule: no prior trusted relationship with the beneficiary.
	if tx.IsNewBeneficiary {
		add(RuleNewBeneficiary, pointsNewBeneficiary, FactorNewBeneficiary)
	}

	// Rule: late-night activity in the configured zone.
	if isLateNight(tx.Timestamp.In(s.location).Hour()) {
		add(RuleLateNight, pointsLateNight, FactorLateNight)
	}

	// Rule: outgoing payment.
	if tx.Direction.IsDebit() {
		label := ""
		if s.labelDebit {
			label = FactorDebit
		}
		add(RuleDebit, pointsDebit, label)
	}

	score := 0
	for _, c := range contributions {
		score += c.Points
	}
	if score > maxScore {
		score = maxScore
	}

	if len(factors) == 0 {
		factors = append(factors, model.StandardBehaviorFactor)
	}

	level := valueobject.RiskLevelFromScore(score)

	return model.RiskAssessment{
		TransactionID:  tx.ID,
		Score:          score,
		Level:          level,
		Recommendation: valueobject.RecommendationFromLevel(level),
		Factors:        factors,
		Contributions:  contributions,
	}, nil
}

func isLateNight(hour int) bool {
	return hour >= lateNightStartHour || hour <= lateNightEndHour
}
