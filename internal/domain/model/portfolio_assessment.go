package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/riskwatch/internal/domain/event"
	"github.com/bibbank/riskwatch/internal/domain/valueobject"
	"github.com/bibbank/riskwatch/pkg/events"
)

// PortfolioAssessment is the aggregate root for one scored batch of a
// subject's transactions over a lookback window.
type PortfolioAssessment struct {
	events.EventCollector
	assessedAt   time.Time
	windowStart  time.Time
	windowEnd    time.Time
	id           string
	subjectID    string
	transactions []ScoredTransaction
	rejected     []RejectedTransaction
	summary      RiskSummary
}

// NewPortfolioAssessment assembles a freshly scored batch and raises a
// PortfolioAssessed event plus one HighRiskDetected event per HIGH transaction.
func NewPortfolioAssessment(
	subjectID string,
	windowStart, windowEnd, assessedAt time.Time,
	transactions []ScoredTransaction,
	rejected []RejectedTransaction,
	summary RiskSummary,
) (*PortfolioAssessment, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, ErrInvalidSubject
	}
	if windowEnd.Before(windowStart) {
		return nil, fmt.Errorf("window end %s is before window start %s",
			windowEnd.Format(time.RFC3339), windowStart.Format(time.RFC3339))
	}
	if summary.TotalCount != len(transactions) {
		return nil, fmt.Errorf("summary counts %d transactions, batch has %d", summary.TotalCount, len(transactions))
	}

	a := &PortfolioAssessment{
		id:           uuid.NewString(),
		subjectID:    subjectID,
		windowStart:  windowStart.UTC(),
		windowEnd:    windowEnd.UTC(),
		assessedAt:   assessedAt.UTC(),
		transactions: transactions,
		rejected:     rejected,
		summary:      summary,
	}

	if err := a.raiseEvents(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *PortfolioAssessment) raiseEvents() error {
	assessed, err := event.NewPortfolioAssessed(event.PortfolioAssessed{
		AssessmentID:   a.id,
		SubjectID:      a.subjectID,
		WindowStart:    a.windowStart,
		WindowEnd:      a.windowEnd,
		TotalCount:     a.summary.TotalCount,
		HighCount:      a.summary.HighCount,
		MediumCount:    a.summary.MediumCount,
		RejectedCount:  len(a.rejected),
		SafePercentage: a.summary.SafePercentage,
		Alert:          a.summary.Alert,
		AssessedAt:     a.assessedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to raise portfolio assessed event: %w", err)
	}
	a.Record(assessed)

	for _, st := range a.transactions {
		if !st.Assessment.Level.Equal(valueobject.RiskLevelHigh) {
			continue
		}
		highRisk, err := event.NewHighRiskDetected(event.HighRiskDetected{
			AssessmentID:  a.id,
			SubjectID:     a.subjectID,
			TransactionID: st.Transaction.ID,
			Beneficiary:   st.Transaction.Beneficiary,
			Amount:        st.Transaction.Amount.String(),
			RiskScore:     st.Assessment.Score,
			Factors:       st.Assessment.Factors,
			DetectedAt:    a.assessedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to raise high risk event for %s: %w", st.Transaction.ID, err)
		}
		a.Record(highRisk)
	}
	return nil
}

// ReconstructPortfolioAssessment rebuilds an aggregate from persisted data (no validation, no events).
func ReconstructPortfolioAssessment(
	id, subjectID string,
	windowStart, windowEnd, assessedAt time.Time,
	transactions []ScoredTransaction,
	summary RiskSummary,
) *PortfolioAssessment {
	return &PortfolioAssessment{
		id:           id,
		subjectID:    subjectID,
		windowStart:  windowStart,
		windowEnd:    windowEnd,
		assessedAt:   assessedAt,
		transactions: transactions,
		summary:      summary,
	}
}

// --- Accessors ---

func (a *PortfolioAssessment) ID() string                        { return a.id }
func (a *PortfolioAssessment) SubjectID() string                 { return a.subjectID }
func (a *PortfolioAssessment) WindowStart() time.Time            { return a.windowStart }
func (a *PortfolioAssessment) WindowEnd() time.Time              { return a.windowEnd }
func (a *PortfolioAssessment) AssessedAt() time.Time             { return a.assessedAt }
func (a *PortfolioAssessment) Transactions() []ScoredTransaction { return a.transactions }
func (a *PortfolioAssessment) Rejected() []RejectedTransaction   { return a.rejected }
func (a *PortfolioAssessment) Summary() RiskSummary              { return a.summary }
