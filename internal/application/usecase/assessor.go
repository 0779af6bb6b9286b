package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/port"
	"github.com/bibbank/riskwatch/internal/domain/service"
)

var tracer = otel.Tracer("github.com/bibbank/riskwatch/internal/application/usecase")

// Assessor runs the pipeline shared by portfolio and batch assessments:
// score, summarize, sort, persist, publish.
type Assessor struct {
	batch     *service.BatchScorer
	repo      port.AssessmentRepository
	publisher port.EventPublisher
	metrics   port.MetricsRecorder
	clock     func() time.Time
	logger    *slog.Logger
}

// NewAssessor creates a new Assessor. A nil clock defaults to time.Now.
func NewAssessor(
	batch *service.BatchScorer,
	repo port.AssessmentRepository,
	publisher port.EventPublisher,
	metrics port.MetricsRecorder,
	clock func() time.Time,
	logger *slog.Logger,
) *Assessor {
	if clock == nil {
		clock = time.Now
	}
	return &Assessor{
		batch:     batch,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
		logger:    logger,
	}
}

// Now returns the assessor's current time.
func (a *Assessor) Now() time.Time {
	return a.clock()
}

type window struct {
	start time.Time
	end   time.Time
}

func (a *Assessor) assess(
	ctx context.Context,
	subjectID string,
	win window,
	txs []model.Transaction,
	sortBy string,
) (*model.PortfolioAssessment, error) {
	ctx, span := tracer.Start(ctx, "Assessor.assess")
	defer span.End()
	span.SetAttributes(
		attribute.String("subject_id", subjectID),
		attribute.Int("batch.size", len(txs)),
	)

	started := time.Now()

	// 1. Score every member; invalid ones are set aside.
	result, err := a.batch.ScoreAll(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("failed to score batch: %w", err)
	}

	// 2. Summarize the scored batch.
	summary := service.Summarize(result.Assessments())

	// 3. Order for presentation.
	if err := sortScored(result.Scored, sortBy); err != nil {
		return nil, err
	}

	if a.metrics != nil {
		a.metrics.ObserveAssessment(summary, result.Rejected, time.Since(started))
	}

	// 4. Build the aggregate.
	assessment, err := model.NewPortfolioAssessment(
		subjectID,
		win.start,
		win.end,
		a.clock(),
		result.Scored,
		result.Rejected,
		summary,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio assessment: %w", err)
	}

	span.SetAttributes(
		attribute.String("assessment_id", assessment.ID()),
		attribute.Int("summary.high", summary.HighCount),
		attribute.Bool("summary.alert", summary.Alert),
	)

	// 5. Persist.
	if err := a.repo.Save(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to save assessment: %w", err)
	}

	// 6. Publish domain events.
	evts := assessment.ClearEvents()
	if len(evts) > 0 {
		if err := a.publisher.Publish(ctx, evts...); err != nil {
			return nil, fmt.Errorf("failed to publish events: %w", err)
		}
	}

	a.logger.Info("portfolio assessed",
		"assessment_id", assessment.ID(),
		"subject_id", subjectID,
		"total", summary.TotalCount,
		"high", summary.HighCount,
		"medium", summary.MediumCount,
		"rejected", len(result.Rejected),
		"alert", summary.Alert,
	)

	return assessment, nil
}
