package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bibbank/riskwatch/internal/application/dto"
	"github.com/bibbank/riskwatch/internal/domain/model"
)

// DefaultMaxBatchSize caps caller-supplied batches.
const DefaultMaxBatchSize = 100

// AssessBatch is the use case for scoring a caller-supplied batch.
type AssessBatch struct {
	assessor *Assessor
	maxSize  int
}

// NewAssessBatch creates a new AssessBatch use case.
func NewAssessBatch(assessor *Assessor, maxSize int) *AssessBatch {
	if maxSize <= 0 {
		maxSize = DefaultMaxBatchSize
	}
	return &AssessBatch{assessor: assessor, maxSize: maxSize}
}

// Execute scores the batch. Members are returned in the order received
// unless a sort is requested. The window spans the earliest and latest
// timestamps supplied.
func (uc *AssessBatch) Execute(ctx context.Context, req dto.AssessBatchRequest) (dto.PortfolioResponse, error) {
	subjectID := strings.TrimSpace(req.SubjectID)
	if subjectID == "" {
		return dto.PortfolioResponse{}, model.ErrInvalidSubject
	}
	if len(req.Transactions) > uc.maxSize {
		return dto.PortfolioResponse{}, fmt.Errorf("%w: %d > %d", model.ErrBatchTooLarge, len(req.Transactions), uc.maxSize)
	}
	if req.Sort != SortNone && req.Sort != SortTimestamp && req.Sort != SortScore {
		return dto.PortfolioResponse{}, model.ErrInvalidSortOrder
	}

	txs := make([]model.Transaction, len(req.Transactions))
	for i, in := range req.Transactions {
		txs[i] = in.ToModel()
	}

	assessment, err := uc.assessor.assess(ctx, subjectID, batchWindow(txs, uc.assessor.Now()), txs, req.Sort)
	if err != nil {
		return dto.PortfolioResponse{}, err
	}
	return dto.FromModel(assessment), nil
}

func batchWindow(txs []model.Transaction, now time.Time) window {
	var win window
	for _, tx := range txs {
		if tx.Timestamp.IsZero() {
			continue
		}
		if win.start.IsZero() || tx.Timestamp.Before(win.start) {
			win.start = tx.Timestamp
		}
		if tx.Timestamp.After(win.end) {
			win.end = tx.Timestamp
		}
	}
	if win.start.IsZero() {
		return window{start: now, end: now}
	}
	return win
}
