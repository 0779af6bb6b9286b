package usecase_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/riskwatch/internal/application/dto"
	"github.com/bibbank/riskwatch/internal/application/usecase"
	"github.com/bibbank/riskwatch/internal/domain/event"
	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/valueobject"
	"github.com/bibbank/riskwatch/pkg/events"
)

func portfolioTransactions() []model.Transaction {
	return []model.Transaction{
		{
			ID:          "t-low",
			Timestamp:   fixedNow.Add(-48 * time.Hour),
			Amount:      decimal.NewFromInt(100),
			Direction:   valueobject.DirectionCredit,
			Beneficiary: "Employer",
		},
		{
			ID:               "t-high",
			Timestamp:        time.Date(2024, 6, 29, 2, 0, 0, 0, time.UTC),
			Amount:           decimal.NewFromInt(20000),
			Direction:        valueobject.DirectionDebit,
			Beneficiary:      "Unknown Co",
			IsNewBeneficiary: true,
		},
		{
			ID:               "t-medium",
			Timestamp:        fixedNow.Add(-1 * time.Hour),
			Amount:           decimal.NewFromInt(6000),
			Direction:        valueobject.DirectionDebit,
			Beneficiary:      "Landlord",
			IsNewBeneficiary: true,
		},
	}
}

func TestAssessPortfolio_Execute(t *testing.T) {
	t.Run("scores, sorts by timestamp and persists", func(t *testing.T) {
		f := newFixture()
		source := &mockTransactionSource{txs: portfolioTransactions()}
		uc := usecase.NewAssessPortfolio(source, f.assessor, nil, 0, slog.Default())

		resp, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "subject-1"})
		require.NoError(t, err)

		assert.Equal(t, fixedNow.Add(-usecase.DefaultLookback), source.lastSince)
		assert.Equal(t, "subject-1", resp.SubjectID)
		assert.NotEmpty(t, resp.AssessmentID)

		require.Len(t, resp.Transactions, 3)
		assert.Equal(t, "t-medium", resp.Transactions[0].ID)
		assert.Equal(t, "t-low", resp.Transactions[1].ID)
		assert.Equal(t, "t-high", resp.Transactions[2].ID)

		assert.Equal(t, 100, resp.Transactions[2].RiskScore)
		assert.Equal(t, "HIGH", resp.Transactions[2].RiskLevel)
		assert.Equal(t, "MANUAL_REVIEW", resp.Transactions[2].Recommendation)
		assert.Equal(t, 60, resp.Transactions[0].RiskScore)
		assert.Equal(t, "MEDIUM", resp.Transactions[0].RiskLevel)

		assert.Equal(t, 3, resp.Summary.TotalCount)
		assert.Equal(t, 1, resp.Summary.HighCount)
		assert.Equal(t, 1, resp.Summary.MediumCount)
		require.NotNil(t, resp.Summary.SafePercentage)
		assert.Equal(t, 67, *resp.Summary.SafePercentage)
		assert.True(t, resp.Summary.Alert)

		require.Len(t, f.repo.saved, 1)
		assert.Equal(t, resp.AssessmentID, f.repo.saved[0].ID())
		assert.Empty(t, f.repo.saved[0].Events())

		require.Len(t, f.publisher.published, 2)
		assert.Equal(t, event.EventTypePortfolioAssessed, f.publisher.published[0].EventType())
		assert.Equal(t, event.EventTypeHighRiskDetected, f.publisher.published[1].EventType())

		require.Len(t, f.metrics.summaries, 1)
	})

	t.Run("sorts by score when requested", func(t *testing.T) {
		f := newFixture()
		source := &mockTransactionSource{txs: portfolioTransactions()}
		uc := usecase.NewAssessPortfolio(source, f.assessor, nil, 0, slog.Default())

		resp, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "subject-1", Sort: usecase.SortScore})
		require.NoError(t, err)

		require.Len(t, resp.Transactions, 3)
		assert.Equal(t, []string{"t-high", "t-medium", "t-low"}, []string{
			resp.Transactions[0].ID, resp.Transactions[1].ID, resp.Transactions[2].ID,
		})
	})

	t.Run("empty portfolio has no safe percentage", func(t *testing.T) {
		f := newFixture()
		uc := usecase.NewAssessPortfolio(&mockTransactionSource{}, f.assessor, nil, 7*24*time.Hour, slog.Default())

		resp, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "quiet"})
		require.NoError(t, err)

		assert.Empty(t, resp.Transactions)
		assert.Nil(t, resp.Summary.SafePercentage)
		assert.False(t, resp.Summary.Alert)
		assert.Equal(t, fixedNow.Add(-7*24*time.Hour), resp.WindowStart)
		require.Len(t, f.publisher.published, 1)
	})

	t.Run("serves a cached result without re-reading the source", func(t *testing.T) {
		f := newFixture()
		source := &mockTransactionSource{txs: portfolioTransactions()}
		cache := newMockCache()
		uc := usecase.NewAssessPortfolio(source, f.assessor, cache, 0, slog.Default())

		first, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "subject-1"})
		require.NoError(t, err)
		second, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "subject-1"})
		require.NoError(t, err)

		assert.Equal(t, 1, source.calls)
		assert.Equal(t, first.AssessmentID, second.AssessmentID)
		assert.Len(t, f.repo.saved, 1)
	})

	t.Run("cache failures fall through to scoring", func(t *testing.T) {
		f := newFixture()
		source := &mockTransactionSource{txs: portfolioTransactions()}
		cache := newMockCache()
		cache.getErr = fmt.Errorf("redis down")
		uc := usecase.NewAssessPortfolio(source, f.assessor, cache, 0, slog.Default())

		_, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "subject-1"})
		require.NoError(t, err)
		assert.Equal(t, 1, source.calls)
	})

	t.Run("rejects a blank subject", func(t *testing.T) {
		f := newFixture()
		uc := usecase.NewAssessPortfolio(&mockTransactionSource{}, f.assessor, nil, 0, slog.Default())

		_, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "  "})
		assert.ErrorIs(t, err, model.ErrInvalidSubject)
	})

	t.Run("rejects an unknown sort", func(t *testing.T) {
		f := newFixture()
		uc := usecase.NewAssessPortfolio(&mockTransactionSource{}, f.assessor, nil, 0, slog.Default())

		_, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "s", Sort: "amount"})
		assert.ErrorIs(t, err, model.ErrInvalidSortOrder)
	})

	t.Run("wraps source failures", func(t *testing.T) {
		f := newFixture()
		source := &mockTransactionSource{err: fmt.Errorf("connection refused")}
		uc := usecase.NewAssessPortfolio(source, f.assessor, nil, 0, slog.Default())

		_, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list transactions")
		assert.Empty(t, f.repo.saved)
	})

	t.Run("fails when repository save fails", func(t *testing.T) {
		f := newFixture()
		f.repo.saveFunc = func(context.Context, *model.PortfolioAssessment) error {
			return fmt.Errorf("database unavailable")
		}
		uc := usecase.NewAssessPortfolio(&mockTransactionSource{txs: portfolioTransactions()}, f.assessor, nil, 0, slog.Default())

		_, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save assessment")
		assert.Empty(t, f.publisher.published)
	})

	t.Run("fails when publishing fails", func(t *testing.T) {
		f := newFixture()
		f.publisher.publishFunc = func(context.Context, ...events.DomainEvent) error {
			return fmt.Errorf("broker unavailable")
		}
		uc := usecase.NewAssessPortfolio(&mockTransactionSource{txs: portfolioTransactions()}, f.assessor, nil, 0, slog.Default())

		_, err := uc.Execute(context.Background(), dto.AssessPortfolioRequest{SubjectID: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish events")
	})
}
