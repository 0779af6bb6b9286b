package port

import (
	"context"
	"time"

	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/pkg/events"
)

// TransactionSource acquires a subject's raw transactions in canonical form.
type TransactionSource interface {
	// ListTransactions returns the subject's transactions that occurred at or after since.
	ListTransactions(ctx context.Context, subjectID string, since time.Time) ([]model.Transaction, error)
}

// AssessmentRepository defines the persistence port for portfolio assessments.
type AssessmentRepository interface {
	// Save persists a portfolio assessment together with its transaction assessments.
	Save(ctx context.Context, assessment *model.PortfolioAssessment) error

	// FindByID retrieves an assessment, including its transactions.
	FindByID(ctx context.Context, id string) (*model.PortfolioAssessment, error)

	// FindBySubject lists a subject's assessments newest first, without transactions.
	FindBySubject(ctx context.Context, subjectID string, limit, offset int) ([]*model.PortfolioAssessment, error)

	// FindHighRisk lists the subject's transactions stored with a HIGH verdict,
	// most recent occurrence first. A transaction assessed more than once is
	// reported from its latest HIGH assessment.
	FindHighRisk(ctx context.Context, subjectID string, limit int) ([]model.RiskAlert, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, events ...events.DomainEvent) error
}

// ResultCache stores recently computed portfolio responses keyed by subject.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MetricsRecorder receives scoring outcomes.
type MetricsRecorder interface {
	ObserveAssessment(summary model.RiskSummary, rejected []model.RejectedTransaction, duration time.Duration)
}
