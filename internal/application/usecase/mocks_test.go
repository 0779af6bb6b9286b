package usecase_test

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bibbank/riskwatch/internal/application/usecase"
	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/service"
	"github.com/bibbank/riskwatch/pkg/events"
)

// --- Mock implementations ---

type mockTransactionSource struct {
	txs       []model.Transaction
	err       error
	calls     int
	lastSince time.Time
}

func (m *mockTransactionSource) ListTransactions(_ context.Context, _ string, since time.Time) ([]model.Transaction, error) {
	m.calls++
	m.lastSince = since
	return m.txs, m.err
}

type mockAssessmentRepository struct {
	saved             []*model.PortfolioAssessment
	saveFunc          func(ctx context.Context, a *model.PortfolioAssessment) error
	findByIDFunc      func(ctx context.Context, id string) (*model.PortfolioAssessment, error)
	findBySubjectFunc func(ctx context.Context, subjectID string, limit, offset int) ([]*model.PortfolioAssessment, error)
	findHighRiskFunc  func(ctx context.Context, subjectID string, limit int) ([]model.RiskAlert, error)
}

func (m *mockAssessmentRepository) Save(ctx context.Context, a *model.PortfolioAssessment) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, a)
	}
	m.saved = append(m.saved, a)
	return nil
}

func (m *mockAssessmentRepository) FindByID(ctx context.Context, id string) (*model.PortfolioAssessment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAssessmentRepository) FindBySubject(ctx context.Context, subjectID string, limit, offset int) ([]*model.PortfolioAssessment, error) {
	if m.findBySubjectFunc != nil {
		return m.findBySubjectFunc(ctx, subjectID, limit, offset)
	}
	return nil, nil
}

func (m *mockAssessmentRepository) FindHighRisk(ctx context.Context, subjectID string, limit int) ([]model.RiskAlert, error) {
	if m.findHighRiskFunc != nil {
		return m.findHighRiskFunc(ctx, subjectID, limit)
	}
	return nil, nil
}

type mockEventPublisher struct {
	published   []events.DomainEvent
	publishFunc func(ctx context.Context, evts ...events.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.published = append(m.published, evts...)
	return nil
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

type mockMetrics struct {
	summaries []model.RiskSummary
	rejected  int
}

func (m *mockMetrics) ObserveAssessment(s model.RiskSummary, rejected []model.RejectedTransaction, _ time.Duration) {
	m.summaries = append(m.summaries, s)
	m.rejected += len(rejected)
}

// --- Fixtures ---

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo      *mockAssessmentRepository
	publisher *mockEventPublisher
	metrics   *mockMetrics
	assessor  *usecase.Assessor
}

func newFixture() *fixture {
	f := &fixture{
		repo:      &mockAssessmentRepository{},
		publisher: &mockEventPublisher{},
		metrics:   &mockMetrics{},
	}
	f.assessor = usecase.NewAssessor(
		service.NewBatchScorer(service.NewRiskScorer(), 4),
		f.repo,
		f.publisher,
		f.metrics,
		func() time.Time { return fixedNow },
		slog.Default(),
	)
	return f
}
