package grpc_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bibbank/riskwatch/internal/application/dto"
	"github.com/bibbank/riskwatch/internal/domain/model"
	riskgrpc "github.com/bibbank/riskwatch/internal/presentation/grpc"
	"github.com/bibbank/riskwatch/pkg/auth"
	"github.com/bibbank/riskwatch/pkg/testutil"
)

// --- Mock implementations ---

type mockPortfolio struct {
	executeFunc func(ctx context.Context, req dto.AssessPortfolioRequest) (dto.PortfolioResponse, error)
}

func (m *mockPortfolio) Execute(ctx context.Context, req dto.AssessPortfolioRequest) (dto.PortfolioResponse, error) {
	return m.executeFunc(ctx, req)
}

type mockBatch struct {
	executeFunc func(ctx context.Context, req dto.AssessBatchRequest) (dto.PortfolioResponse, error)
}

func (m *mockBatch) Execute(ctx context.Context, req dto.AssessBatchRequest) (dto.PortfolioResponse, error) {
	return m.executeFunc(ctx, req)
}

type mockHistory struct {
	executeFunc func(ctx context.Context, req dto.GetHistoryRequest) (dto.HistoryResponse, error)
}

func (m *mockHistory) Execute(ctx context.Context, req dto.GetHistoryRequest) (dto.HistoryResponse, error) {
	return m.executeFunc(ctx, req)
}

type mockAssessment struct {
	executeFunc func(ctx context.Context, id string) (dto.PortfolioResponse, error)
}

func (m *mockAssessment) Execute(ctx context.Context, id string) (dto.PortfolioResponse, error) {
	return m.executeFunc(ctx, id)
}

// --- Helpers ---

type fixture struct {
	portfolio  *mockPortfolio
	batch      *mockBatch
	history    *mockHistory
	assessment *mockAssessment
	jwt        *auth.JWTService
	conn       *grpclib.ClientConn
	client     *riskgrpc.RiskServiceClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "grpc-test-secret", Issuer: "riskwatch"})
	require.NoError(t, err)

	f := &fixture{
		portfolio:  &mockPortfolio{},
		batch:      &mockBatch{},
		history:    &mockHistory{},
		assessment: &mockAssessment{},
		jwt:        jwtSvc,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := riskgrpc.NewRiskServiceHandler(f.portfolio, f.batch, f.history, f.assessment, logger)
	srv, err := riskgrpc.NewServer(riskgrpc.ServerConfig{}, handler, jwtSvc, logger)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	f.conn = conn
	f.client = riskgrpc.NewRiskServiceClient(conn)
	return f
}

func (f *fixture) ctxWithRoles(t *testing.T, roles ...string) context.Context {
	t.Helper()
	token, err := f.jwt.GenerateToken("user-1", roles)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func safe(v int) *int { return &v }

func samplePortfolio(subjectID string) dto.PortfolioResponse {
	return dto.PortfolioResponse{
		AssessmentID: "a-1",
		SubjectID:    subjectID,
		AssessedAt:   testutil.FixedNow,
		Transactions: []dto.TransactionAssessmentResponse{{
			ID:        "tx-1",
			Amount:    "20000",
			RiskScore: 100,
			RiskLevel: "HIGH",
			Factors:   []string{"Large Amount (High)", "New/Untrusted Beneficiary"},
		}},
		Summary: dto.SummaryResponse{TotalCount: 1, HighCount: 1, SafePercentage: safe(0), Alert: true},
	}
}

// --- Tests ---

func TestAssessPortfolio(t *testing.T) {
	f := newFixture(t)
	f.portfolio.executeFunc = func(_ context.Context, req dto.AssessPortfolioRequest) (dto.PortfolioResponse, error) {
		assert.Equal(t, "score", req.Sort)
		return samplePortfolio(req.SubjectID), nil
	}

	resp, err := f.client.AssessPortfolio(f.ctxWithRoles(t, auth.RoleAnalyst), &riskgrpc.AssessPortfolioRequest{
		SubjectID: "s-1",
		Sort:      "score",
	})
	require.NoError(t, err)

	assert.Equal(t, "s-1", resp.Assessment.SubjectID)
	assert.True(t, resp.Assessment.Summary.Alert)
	require.NotNil(t, resp.Assessment.Summary.SafePercentage)
	assert.Equal(t, 0, *resp.Assessment.Summary.SafePercentage)
	require.Len(t, resp.Assessment.Transactions, 1)
	assert.Equal(t, 100, resp.Assessment.Transactions[0].RiskScore)
	assert.True(t, resp.Assessment.AssessedAt.Equal(testutil.FixedNow))
	require.NotNil(t, resp.AssessedAt)
	assert.True(t, resp.AssessedAt.AsTime().Equal(testutil.FixedNow))
}

func TestAssessBatch_PassesTransactions(t *testing.T) {
	f := newFixture(t)
	f.batch.executeFunc = func(_ context.Context, req dto.AssessBatchRequest) (dto.PortfolioResponse, error) {
		require.Len(t, req.Transactions, 1)
		assert.True(t, req.Transactions[0].Amount.Decimal.Equal(decimal.NewFromInt(6000)))
		assert.Equal(t, "DEBIT", req.Transactions[0].Direction)
		return samplePortfolio(req.SubjectID), nil
	}

	_, err := f.client.AssessBatch(f.ctxWithRoles(t, auth.RoleAdmin), &riskgrpc.AssessBatchRequest{
		SubjectID: "s-1",
		Transactions: []dto.TransactionInput{{
			ID:          "tx-1",
			Timestamp:   testutil.FixedNow,
			Amount:      decimal.NewNullDecimal(decimal.NewFromInt(6000)),
			Direction:   "DEBIT",
			Beneficiary: "Grocer",
		}},
	})
	require.NoError(t, err)
}

func TestAuthorization(t *testing.T) {
	f := newFixture(t)
	f.portfolio.executeFunc = func(_ context.Context, req dto.AssessPortfolioRequest) (dto.PortfolioResponse, error) {
		return samplePortfolio(req.SubjectID), nil
	}
	f.assessment.executeFunc = func(_ context.Context, _ string) (dto.PortfolioResponse, error) {
		return samplePortfolio("s-1"), nil
	}

	t.Run("missing token", func(t *testing.T) {
		_, err := f.client.AssessPortfolio(context.Background(), &riskgrpc.AssessPortfolioRequest{SubjectID: "s-1"})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("auditor cannot assess", func(t *testing.T) {
		_, err := f.client.AssessPortfolio(f.ctxWithRoles(t, auth.RoleAuditor), &riskgrpc.AssessPortfolioRequest{SubjectID: "s-1"})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("auditor can read", func(t *testing.T) {
		_, err := f.client.GetAssessment(f.ctxWithRoles(t, auth.RoleAuditor), &riskgrpc.GetAssessmentRequest{AssessmentID: "a-1"})
		assert.NoError(t, err)
	})

	t.Run("health check is public", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(f.conn).Check(context.Background(), &healthpb.HealthCheckRequest{
			Service: "riskwatch.risk.v1.RiskService",
		})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"invalid subject", model.ErrInvalidSubject, codes.InvalidArgument},
		{"invalid sort", model.ErrInvalidSortOrder, codes.InvalidArgument},
		{"batch too large", model.ErrBatchTooLarge, codes.InvalidArgument},
		{"not found", model.ErrPortfolioNotFound, codes.NotFound},
		{"timeout", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"unexpected", errors.New("connection reset"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.assessment.executeFunc = func(_ context.Context, _ string) (dto.PortfolioResponse, error) {
				return dto.PortfolioResponse{}, tt.err
			}

			_, err := f.client.GetAssessment(f.ctxWithRoles(t, auth.RoleAdmin), &riskgrpc.GetAssessmentRequest{AssessmentID: "a-1"})
			require.Error(t, err)
			assert.Equal(t, tt.want, status.Code(err))
			if tt.want == codes.Internal {
				assert.NotContains(t, status.Convert(err).Message(), "connection reset")
			}
		})
	}
}

func TestGetAssessment_RequiresID(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.GetAssessment(f.ctxWithRoles(t, auth.RoleAdmin), &riskgrpc.GetAssessmentRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetPortfolioHistory(t *testing.T) {
	f := newFixture(t)
	f.history.executeFunc = func(_ context.Context, req dto.GetHistoryRequest) (dto.HistoryResponse, error) {
		assert.Equal(t, 5, req.Limit)
		assert.Equal(t, 10, req.Offset)
		return dto.HistoryResponse{
			SubjectID:   req.SubjectID,
			Limit:       req.Limit,
			Offset:      req.Offset,
			Assessments: []dto.HistoryItem{{AssessmentID: "a-1"}, {AssessmentID: "a-0"}},
		}, nil
	}

	resp, err := f.client.GetPortfolioHistory(f.ctxWithRoles(t, auth.RoleAuditor), &riskgrpc.GetPortfolioHistoryRequest{
		SubjectID: "s-1",
		Limit:     5,
		Offset:    10,
	})
	require.NoError(t, err)
	require.Len(t, resp.History.Assessments, 2)
	assert.Equal(t, "a-1", resp.History.Assessments[0].AssessmentID)
}
