package event

import (
	"time"

	"github.com/bibbank/riskwatch/pkg/events"
)

const (
	// EventTypePortfolioAssessed is emitted when a subject's batch has been scored and summarized.
	EventTypePortfolioAssessed = "risk.portfolio.assessed"

	// EventTypeHighRiskDetected is emitted for every HIGH assessment in a batch.
	EventTypeHighRiskDetected = "risk.high_risk.detected"

	// AggregateTypePortfolioAssessment names the aggregate that raises these events.
	AggregateTypePortfolioAssessment = "portfolio_assessment"
)

// PortfolioAssessed is the body of a risk.portfolio.assessed event.
type PortfolioAssessed struct {
	AssessedAt     time.Time `json:"assessed_at"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	SafePercentage *int      `json:"safe_percentage,omitempty"`
	AssessmentID   string    `json:"assessment_id"`
	SubjectID      string    `json:"subject_id"`
	TotalCount     int       `json:"total_count"`
	HighCount      int       `json:"high_count"`
	MediumCount    int       `json:"medium_count"`
	RejectedCount  int       `json:"rejected_count"`
	Alert          bool      `json:"alert"`
}

// HighRiskDetected is the body of a risk.high_risk.detected event.
type HighRiskDetected struct {
	DetectedAt    time.Time `json:"detected_at"`
	AssessmentID  string    `json:"assessment_id"`
	SubjectID     string    `json:"subject_id"`
	TransactionID string    `json:"transaction_id"`
	Beneficiary   string    `json:"beneficiary"`
	Amount        string    `json:"amount"`
	Factors       []string  `json:"factors"`
	RiskScore     int       `json:"risk_score"`
}

// NewPortfolioAssessed wraps the body in a DomainEvent.
func NewPortfolioAssessed(body PortfolioAssessed) (events.DomainEvent, error) {
	return wrap(EventTypePortfolioAssessed, body.AssessmentID, body.AssessedAt, body)
}

// NewHighRiskDetected wraps the body in a DomainEvent.
func NewHighRiskDetected(body HighRiskDetected) (events.DomainEvent, error) {
	return wrap(EventTypeHighRiskDetected, body.AssessmentID, body.DetectedAt, body)
}

func wrap(eventType, aggregateID string, occurredAt time.Time, body any) (events.DomainEvent, error) {
	evt, err := events.NewBaseEvent(eventType, aggregateID, AggregateTypePortfolioAssessment, occurredAt, body)
	if err != nil {
		return nil, err
	}
	return evt, nil
}
