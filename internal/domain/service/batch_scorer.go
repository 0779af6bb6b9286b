package service

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/bibbank/riskwatch/internal/domain/model"
)

// BatchResult holds the scored and rejected members of a batch, each in
// the order they were received.
type BatchResult struct {
	Scored   []model.ScoredTransaction
	Rejected []model.RejectedTransaction
}

// Assessments returns the assessments of the scored members.
func (r BatchResult) Assessments() []model.RiskAssessment {
	out := make([]model.RiskAssessment, len(r.Scored))
	for i, st := range r.Scored {
		out[i] = st.Assessment
	}
	return out
}

// BatchScorer applies a Scorer to every member of a batch concurrently.
// Invalid members are skipped and reported rather than failing the batch.
type BatchScorer struct {
	scorer      Scorer
	concurrency int
}

// NewBatchScorer creates a BatchScorer. A concurrency below 1 defaults to GOMAXPROCS.
func NewBatchScorer(scorer Scorer, concurrency int) *BatchScorer {
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &BatchScorer{scorer: scorer, concurrency: concurrency}
}

type slot struct {
	assessment model.RiskAssessment
	invalid    *model.InvalidTransactionError
}

// ScoreAll scores txs. The only error returned is ctx's; per-record failures
// are collected in BatchResult.Rejected. A repeated transaction ID rejects
// every occurrence after the first.
func (b *BatchScorer) ScoreAll(ctx context.Context, txs []model.Transaction) (BatchResult, error) {
	slots := make([]slot, len(txs))

	seen := make(map[string]struct{}, len(txs))
	for i, tx := range txs {
		if tx.ID == "" {
			continue
		}
		if _, dup := seen[tx.ID]; dup {
			slots[i].invalid = model.NewInvalidTransaction(tx.ID, model.FieldID, "duplicate within batch")
			continue
		}
		seen[tx.ID] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := range txs {
		if slots[i].invalid != nil {
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			assessment, err := b.scorer.Score(txs[i])
			if err != nil {
				var invalid *model.InvalidTransactionError
				if errors.As(err, &invalid) {
					slots[i].invalid = invalid
					return nil
				}
				return err
			}
			slots[i].assessment = assessment
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{
		Scored: make([]model.ScoredTransaction, 0, len(txs)),
	}
	for i, s := range slots {
		if s.invalid != nil {
			result.Rejected = append(result.Rejected, model.RejectedTransaction{
				TransactionID: txs[i].ID,
				Err:           s.invalid,
			})
			continue
		}
		result.Scored = append(result.Scored, model.ScoredTransaction{
			Transaction: txs[i],
			Assessment:  s.assessment,
		})
	}
	return result, nil
}
