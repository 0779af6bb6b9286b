//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/riskwatch/internal/application/dto"
	"github.com/bibbank/riskwatch/internal/application/usecase"
	"github.com/bibbank/riskwatch/internal/domain/event"
	"github.com/bibbank/riskwatch/internal/domain/port"
	"github.com/bibbank/riskwatch/internal/domain/service"
	"github.com/bibbank/riskwatch/internal/infrastructure/cache"
	"github.com/bibbank/riskwatch/internal/infrastructure/messaging"
	"github.com/bibbank/riskwatch/internal/infrastructure/metrics"
	"github.com/bibbank/riskwatch/internal/infrastructure/postgres"
	"github.com/bibbank/riskwatch/internal/presentation/rest"
	"github.com/bibbank/riskwatch/pkg/auth"
	pkgkafka "github.com/bibbank/riskwatch/pkg/kafka"
	"github.com/bibbank/riskwatch/pkg/testutil"
)

const jwtSecret = "e2e-secret"

type stack struct {
	pg        *testutil.PostgresContainer
	repo      *postgres.AssessmentRepository
	portfolio *usecase.AssessPortfolio
	batch     *usecase.AssessBatch
	server    *httptest.Server
	jwt       *auth.JWTService
}

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seed stores three payments in the last day for TestSubjectID: one HIGH,
// one MEDIUM and one LOW.
func seed(t *testing.T, ctx context.Context, pg *testutil.PostgresContainer) {
	t.Helper()
	now := testutil.FixedNow

	_, err := pg.Pool.Exec(ctx, `
		INSERT INTO payment_transactions (id, subject_id, occurred_at, amount, direction, beneficiary) VALUES
			('e2e-high',   $1, $2, 20000,  'DEBIT',  'Offshore Ltd'),
			('e2e-medium', $1, $3, 6000,   'CREDIT', 'Grocer'),
			('e2e-low',    $1, $4, 120.50, 'DEBIT',  'Grocer')`,
		testutil.TestSubjectID,
		now.Add(-2*time.Hour),
		now.Add(-10*time.Hour),
		now.AddDate(0, 0, -1),
	)
	require.NoError(t, err)

	_, err = pg.Pool.Exec(ctx,
		`INSERT INTO trusted_beneficiaries (subject_id, beneficiary, trusted_since) VALUES ($1, 'Grocer', $2)`,
		testutil.TestSubjectID, now.AddDate(-1, 0, 0),
	)
	require.NoError(t, err)
}

func newStack(t *testing.T, publisher port.EventPublisher) *stack {
	t.Helper()
	ctx := context.Background()

	pg := testutil.NewPostgresContainer(ctx, t)
	pg.Migrate(t)
	seed(t, ctx, pg)

	if publisher == nil {
		publisher = messaging.NewLogPublisher(logger())
	}

	repo := postgres.NewAssessmentRepository(pg.Pool)
	assessor := usecase.NewAssessor(
		service.NewBatchScorer(service.NewRiskScorer(), 4),
		repo,
		publisher,
		metrics.NewPrometheusRecorder(prometheus.NewRegistry()),
		testutil.Clock(),
		logger(),
	)
	portfolio := usecase.NewAssessPortfolio(postgres.NewTransactionSource(pg.Pool), assessor, cache.NopCache{}, 0, logger())
	batch := usecase.NewAssessBatch(assessor, 100)

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: jwtSecret, Issuer: "riskwatch"})
	require.NoError(t, err)

	risk := rest.NewRiskHandler(
		portfolio,
		batch,
		usecase.NewGetPortfolioHistory(repo),
		usecase.NewGetPortfolioAssessment(repo),
		usecase.NewGetRiskAlerts(repo),
		usecase.NewExportPortfolioCSV(portfolio),
		logger(),
	)
	health := rest.NewHealthHandler("riskwatch", map[string]rest.Checker{
		"postgres": func(ctx context.Context) error { return pg.Pool.Ping(ctx) },
	}, logger())

	server := httptest.NewServer(rest.NewRouter(rest.RouterConfig{Validator: jwtSvc, Logger: logger()}, risk, health))
	t.Cleanup(server.Close)

	return &stack{pg: pg, repo: repo, portfolio: portfolio, batch: batch, server: server, jwt: jwtSvc}
}

func (s *stack) do(t *testing.T, method, path string, body interface{}, roles ...string) *http.Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.server.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if len(roles) > 0 {
		token, err := s.jwt.GenerateToken("e2e-user", roles)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestPortfolioFlow(t *testing.T) {
	s := newStack(t, nil)

	resp := s.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Assess
	resp = s.do(t, http.MethodPost, "/api/v1/risk/portfolio",
		dto.AssessPortfolioRequest{SubjectID: testutil.TestSubjectID}, auth.RoleAnalyst)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assessed := testutil.DecodeJSON[dto.PortfolioResponse](t, mustRead(t, resp.Body))
	require.Len(t, assessed.Transactions, 3)
	assert.Equal(t, []string{"e2e-high", "e2e-medium", "e2e-low"}, ids(assessed.Transactions))
	assert.Equal(t, []string{"HIGH", "MEDIUM", "LOW"}, levels(assessed.Transactions))
	assert.Equal(t, 80, assessed.Transactions[0].RiskScore)
	assert.Equal(t, []string{"Large Amount (High)", "New/Untrusted Beneficiary"}, assessed.Transactions[0].Factors)
	assert.Equal(t, []string{"Standard Behavior"}, assessed.Transactions[2].Factors)

	summary := assessed.Summary
	assert.Equal(t, 3, summary.TotalCount)
	assert.Equal(t, 1, summary.HighCount)
	assert.Equal(t, 1, summary.MediumCount)
	require.NotNil(t, summary.SafePercentage)
	assert.Equal(t, 33, *summary.SafePercentage)
	assert.True(t, summary.Alert)

	// Read back
	resp = s.do(t, http.MethodGet, "/api/v1/risk/assessments/"+assessed.AssessmentID, nil, auth.RoleAuditor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := testutil.DecodeJSON[dto.PortfolioResponse](t, mustRead(t, resp.Body))
	assert.Equal(t, assessed.Summary, loaded.Summary)
	assert.Len(t, loaded.Transactions, 3)

	// Export runs a fresh assessment
	resp = s.do(t, http.MethodGet, "/api/v1/risk/portfolio/"+testutil.TestSubjectID+"/export", nil, auth.RoleAuditor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "e2e-high", rows[1][0])

	// History lists both, newest first
	resp = s.do(t, http.MethodGet, "/api/v1/risk/portfolio/"+testutil.TestSubjectID+"/history", nil, auth.RoleAuditor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := testutil.DecodeJSON[dto.HistoryResponse](t, mustRead(t, resp.Body))
	assert.Len(t, history.Assessments, 2)

	// Auditors may not assess
	resp = s.do(t, http.MethodPost, "/api/v1/risk/portfolio",
		dto.AssessPortfolioRequest{SubjectID: testutil.TestSubjectID}, auth.RoleAuditor)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBatchFlow_ReportsRejectedMembers(t *testing.T) {
	s := newStack(t, nil)

	at := time.Date(2024, 7, 1, 23, 30, 0, 0, time.UTC)
	resp := s.do(t, http.MethodPost, "/api/v1/risk/batch", json.RawMessage(`{
		"subject_id": "batch-subject",
		"sort": "score",
		"transactions": [
			{"id": "b-1", "timestamp": "`+at.Format(time.RFC3339)+`", "amount": "16000", "direction": "DEBIT", "beneficiary": "X", "is_new_beneficiary": true},
			{"id": "b-2", "timestamp": "`+at.Format(time.RFC3339)+`", "amount": "-5", "direction": "DEBIT", "beneficiary": "X"},
			{"id": "b-3", "timestamp": "`+at.Format(time.RFC3339)+`", "amount": "10", "direction": "CREDIT", "beneficiary": "Y"}
		]
	}`), auth.RoleAdmin)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := testutil.DecodeJSON[dto.PortfolioResponse](t, mustRead(t, resp.Body))
	require.Len(t, out.Transactions, 2)
	assert.Equal(t, 100, out.Transactions[0].RiskScore)
	assert.Equal(t, 20, out.Transactions[1].RiskScore)

	require.Len(t, out.Rejected, 1)
	assert.Equal(t, "b-2", out.Rejected[0].TransactionID)
	assert.Equal(t, "amount", out.Rejected[0].Field)

	assert.Equal(t, 2, out.Summary.TotalCount)
	require.NotNil(t, out.Summary.SafePercentage)
	assert.Equal(t, 50, *out.Summary.SafePercentage)
}

func TestKafkaFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	kc := testutil.NewKafkaContainer(ctx, t)
	kafkaCfg := pkgkafka.Config{Brokers: kc.Brokers, ConsumerGroup: "riskwatch-e2e"}

	producer, err := pkgkafka.NewProducer(kafkaCfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = producer.Close() })

	s := newStack(t, messaging.NewKafkaPublisher(producer, "risk.events", logger()))

	var (
		mu         sync.Mutex
		eventTypes []string
	)
	events, err := pkgkafka.NewConsumer(kafkaCfg, "risk.events", func(_ context.Context, msg pkgkafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		eventTypes = append(eventTypes, msg.Headers["event_type"])
		return nil
	}, logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })

	requests, err := pkgkafka.NewConsumer(kafkaCfg, "risk.requests",
		messaging.NewAssessmentRequestHandler(s.portfolio, logger()), logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = requests.Close() })

	go func() { _ = events.Start(ctx) }()
	go func() { _ = requests.Start(ctx) }()

	payload, err := json.Marshal(messaging.AssessmentRequest{SubjectID: testutil.TestSubjectID})
	require.NoError(t, err)
	require.NoError(t, producer.Publish(ctx, "risk.requests", pkgkafka.Message{
		Key:   []byte(testutil.TestSubjectID),
		Value: payload,
	}))

	require.Eventually(t, func() bool {
		history, err := s.repo.FindBySubject(ctx, testutil.TestSubjectID, 10, 0)
		return err == nil && len(history) == 1
	}, time.Minute, 500*time.Millisecond, "request was not assessed")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(eventTypes) >= 2
	}, time.Minute, 500*time.Millisecond, "events were not published")

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{event.EventTypePortfolioAssessed, event.EventTypeHighRiskDetected}, eventTypes)
}

func mustRead(t *testing.T, r io.Reader) []byte {
	t.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	return raw
}

func ids(txs []dto.TransactionAssessmentResponse) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func levels(txs []dto.TransactionAssessmentResponse) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.RiskLevel
	}
	return out
}
