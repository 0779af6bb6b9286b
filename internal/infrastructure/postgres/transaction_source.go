package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/valueobject"
	pgutil "github.com/bibbank/riskwatch/pkg/postgres"
)

// TransactionSource implements port.TransactionSource over the
// payment_transactions table. A beneficiary counts as new for a payment
// unless it was trusted by the subject at or before the payment time.
type TransactionSource struct {
	db pgutil.Querier
}

// NewTransactionSource creates a new PostgreSQL-backed transaction source.
func NewTransactionSource(db pgutil.Querier) *TransactionSource {
	return &TransactionSource{db: db}
}

// ListTransactions returns the subject's payments at or after since, newest first.
// Rows with an unrecognised direction are returned with the direction unset
// so the scorer reports them.
func (s *TransactionSource) ListTransactions(ctx context.Context, subjectID string, since time.Time) ([]model.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.occurred_at, p.amount, p.direction, p.beneficiary,
			NOT EXISTS (
				SELECT 1 FROM trusted_beneficiaries tb
				WHERE tb.subject_id = p.subject_id
				  AND tb.beneficiary = p.beneficiary
				  AND tb.trusted_since <= p.occurred_at
			) AS is_new_beneficiary
		FROM payment_transactions p
		WHERE p.subject_id = $1 AND p.occurred_at >= $2
		ORDER BY p.occurred_at DESC, p.id`,
		subjectID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]model.Transaction, 0)
	for rows.Next() {
		var (
			tx         model.Transaction
			occurredAt time.Time
			amount     decimal.Decimal
			direction  string
		)
		if err := rows.Scan(&tx.ID, &occurredAt, &amount, &direction, &tx.Beneficiary, &tx.IsNewBeneficiary); err != nil {
			return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
		}
		tx.Timestamp = occurredAt.UTC()
		tx.Amount = amount
		tx.Direction, _ = valueobject.DirectionFromString(direction)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment transactions: %w", err)
	}

	return txs, nil
}
