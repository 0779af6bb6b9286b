package service

import "github.com/bibbank/riskwatch/internal/domain/model"

// Scorer defines the interface for per-transaction risk scoring strategies.
// Implementations must be pure: safe for concurrent use and deterministic.
type Scorer interface {
	Score(tx model.Transaction) (model.RiskAssessment, error)
}
