package usecase

import (
	"cmp"
	"slices"

	"github.com/bibbank/riskwatch/internal/domain/model"
)

// Presentation orders for scored transactions.
const (
	SortNone      = ""
	SortTimestamp = "timestamp"
	SortScore     = "score"
)

// sortScored orders txs in place, newest or riskiest first. Ties fall back
// to transaction ID so output is stable across runs.
func sortScored(txs []model.ScoredTransaction, by string) error {
	switch by {
	case SortNone:
		return nil
	case SortTimestamp:
		slices.SortStableFunc(txs, func(a, b model.ScoredTransaction) int {
			if c := b.Transaction.Timestamp.Compare(a.Transaction.Timestamp); c != 0 {
				return c
			}
			return cmp.Compare(a.Transaction.ID, b.Transaction.ID)
		})
	case SortScore:
		slices.SortStableFunc(txs, func(a, b model.ScoredTransaction) int {
			if c := cmp.Compare(b.Assessment.Score, a.Assessment.Score); c != 0 {
				return c
			}
			return cmp.Compare(a.Transaction.ID, b.Transaction.ID)
		})
	default:
		return model.ErrInvalidSortOrder
	}
	return nil
}
