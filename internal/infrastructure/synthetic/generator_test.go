package synthetic_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/riskwatch/internal/infrastructure/synthetic"
)

var now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func TestGenerator_Deterministic(t *testing.T) {
	since := now.AddDate(0, 0, -30)

	a, err := synthetic.NewGenerator(rand.New(rand.NewSource(7)), clock).ListTransactions(context.Background(), "s-1", since)
	require.NoError(t, err)
	b, err := synthetic.NewGenerator(rand.New(rand.NewSource(7)), clock).ListTransactions(context.Background(), "s-1", since)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerator_ProducesValidTransactions(t *testing.T) {
	since := now.AddDate(0, 0, -30)
	gen := synthetic.NewGenerator(rand.New(rand.NewSource(1)), clock)

	txs, err := gen.ListTransactions(context.Background(), "s-1", since)
	require.NoError(t, err)
	require.Len(t, txs, synthetic.DefaultGeneratorConfig().Count)

	seen := map[string]bool{}
	for _, tx := range txs {
		require.NoError(t, tx.Validate())
		assert.False(t, seen[tx.ID], "duplicate id %s", tx.ID)
		seen[tx.ID] = true

		assert.False(t, tx.Timestamp.Before(since))
		assert.False(t, tx.Timestamp.After(now))
		assert.True(t, tx.Amount.GreaterThanOrEqual(decimal.NewFromInt(100)))
		assert.True(t, tx.Amount.LessThanOrEqual(decimal.NewFromInt(50000)))
	}
}

func TestGenerator_Config(t *testing.T) {
	cfg := synthetic.GeneratorConfig{
		Count:               10,
		MinAmount:           20000,
		MaxAmount:           30000,
		NewBeneficiaryRatio: 1,
		DebitRatio:          0,
	}
	gen := synthetic.NewGeneratorWithConfig(rand.New(rand.NewSource(3)), clock, cfg)

	txs, err := gen.ListTransactions(context.Background(), "s-2", now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, txs, 10)
	for _, tx := range txs {
		assert.True(t, tx.IsNewBeneficiary)
		assert.False(t, tx.Direction.IsDebit())
		assert.True(t, tx.Amount.GreaterThan(decimal.NewFromInt(15000)))
	}
}

func TestGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := synthetic.NewGenerator(rand.New(rand.NewSource(1)), clock).ListTransactions(ctx, "s-1", now)
	assert.ErrorIs(t, err, context.Canceled)
}
