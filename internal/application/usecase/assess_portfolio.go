package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bibbank/riskwatch/internal/application/dto"
	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/port"
)

// DefaultLookback is the window of history scored for a portfolio.
const DefaultLookback = 30 * 24 * time.Hour

// AssessPortfolio is the use case for scoring a subject's recent transactions.
type AssessPortfolio struct {
	source   port.TransactionSource
	assessor *Assessor
	cache    port.ResultCache
	logger   *slog.Logger
	lookback time.Duration
}

// NewAssessPortfolio creates a new AssessPortfolio use case.
func NewAssessPortfolio(
	source port.TransactionSource,
	assessor *Assessor,
	cache port.ResultCache,
	lookback time.Duration,
	logger *slog.Logger,
) *AssessPortfolio {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &AssessPortfolio{
		source:   source,
		assessor: assessor,
		cache:    cache,
		lookback: lookback,
		logger:   logger,
	}
}

// Execute fetches the subject's lookback window, scores it and returns the
// sorted assessments with their summary. A fresh cached result is returned
// without re-scoring.
func (uc *AssessPortfolio) Execute(ctx context.Context, req dto.AssessPortfolioRequest) (dto.PortfolioResponse, error) {
	subjectID := strings.TrimSpace(req.SubjectID)
	if subjectID == "" {
		return dto.PortfolioResponse{}, model.ErrInvalidSubject
	}
	sortBy := req.Sort
	if sortBy == SortNone {
		sortBy = SortTimestamp
	}
	if sortBy != SortTimestamp && sortBy != SortScore {
		return dto.PortfolioResponse{}, model.ErrInvalidSortOrder
	}

	key := cacheKey(subjectID, sortBy)
	if resp, ok := uc.cached(ctx, key); ok {
		return resp, nil
	}

	end := uc.assessor.Now()
	start := end.Add(-uc.lookback)

	txs, err := uc.source.ListTransactions(ctx, subjectID, start)
	if err != nil {
		return dto.PortfolioResponse{}, fmt.Errorf("failed to list transactions: %w", err)
	}

	assessment, err := uc.assessor.assess(ctx, subjectID, window{start: start, end: end}, txs, sortBy)
	if err != nil {
		return dto.PortfolioResponse{}, err
	}

	resp := dto.FromModel(assessment)
	uc.store(ctx, key, resp)
	return resp, nil
}

func cacheKey(subjectID, sortBy string) string {
	return "portfolio:" + subjectID + ":" + sortBy
}

func (uc *AssessPortfolio) cached(ctx context.Context, key string) (dto.PortfolioResponse, bool) {
	if uc.cache == nil {
		return dto.PortfolioResponse{}, false
	}
	raw, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("portfolio cache read failed", "key", key, "error", err)
		return dto.PortfolioResponse{}, false
	}
	if !ok {
		return dto.PortfolioResponse{}, false
	}
	var resp dto.PortfolioResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		uc.logger.Warn("discarding corrupt cache entry", "key", key, "error", err)
		return dto.PortfolioResponse{}, false
	}
	return resp, true
}

func (uc *AssessPortfolio) store(ctx context.Context, key string, resp dto.PortfolioResponse) {
	if uc.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		uc.logger.Warn("failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := uc.cache.Set(ctx, key, raw); err != nil {
		uc.logger.Warn("portfolio cache write failed", "key", key, "error", err)
	}
}
