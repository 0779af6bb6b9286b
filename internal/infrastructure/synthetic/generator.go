// Package synthetic produces reproducible demo transactions for local runs.
package synthetic

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/valueobject"
)

// GeneratorConfig shapes the generated batches.
type GeneratorConfig struct {
	Beneficiaries       []string
	Count               int
	MinAmount           float64
	MaxAmount           float64
	NewBeneficiaryRatio float64
	DebitRatio          float64
}

// DefaultGeneratorConfig mirrors the demo seed data: amounts between 100 and
// 50000 with roughly one payment in ten going to a new beneficiary.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Count:               25,
		MinAmount:           100,
		MaxAmount:           50000,
		NewBeneficiaryRatio: 0.1,
		DebitRatio:          0.7,
		Beneficiaries: []string{
			"Grocer", "Utility Co", "Landlord", "Employer", "Pharmacy",
			"Coffee Shop", "Airline", "Electronics Store", "Gym", "Insurance",
		},
	}
}

// Generator implements port.TransactionSource with pseudo-random data.
// Batches depend only on the seed of rng and the order of calls.
type Generator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	clock func() time.Time
	cfg   GeneratorConfig
}

// NewGenerator creates a Generator using DefaultGeneratorConfig.
func NewGenerator(rng *rand.Rand, clock func() time.Time) *Generator {
	return NewGeneratorWithConfig(rng, clock, DefaultGeneratorConfig())
}

// NewGeneratorWithConfig creates a Generator with an explicit config.
func NewGeneratorWithConfig(rng *rand.Rand, clock func() time.Time, cfg GeneratorConfig) *Generator {
	if clock == nil {
		clock = time.Now
	}
	if len(cfg.Beneficiaries) == 0 {
		cfg.Beneficiaries = DefaultGeneratorConfig().Beneficiaries
	}
	if cfg.MaxAmount < cfg.MinAmount {
		cfg.MinAmount, cfg.MaxAmount = cfg.MaxAmount, cfg.MinAmount
	}
	return &Generator{rng: rng, clock: clock, cfg: cfg}
}

// ListTransactions returns cfg.Count transactions spread uniformly between
// since and now.
func (g *Generator) ListTransactions(ctx context.Context, subjectID string, since time.Time) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := g.clock().UTC()
	span := now.Sub(since)
	if span < 0 {
		span = 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	txs := make([]model.Transaction, 0, g.cfg.Count)
	for i := 0; i < g.cfg.Count; i++ {
		var offset time.Duration
		if span > 0 {
			offset = time.Duration(g.rng.Int63n(int64(span)))
		}

		cents := int64((g.cfg.MinAmount + g.rng.Float64()*(g.cfg.MaxAmount-g.cfg.MinAmount)) * 100)

		direction := valueobject.DirectionCredit
		if g.rng.Float64() < g.cfg.DebitRatio {
			direction = valueobject.DirectionDebit
		}

		isNew := g.rng.Float64() < g.cfg.NewBeneficiaryRatio
		beneficiary := g.cfg.Beneficiaries[g.rng.Intn(len(g.cfg.Beneficiaries))]
		if isNew {
			beneficiary = fmt.Sprintf("Payee %04d", g.rng.Intn(10000))
		}

		txs = append(txs, model.Transaction{
			ID:               fmt.Sprintf("%s-syn-%03d", subjectID, i+1),
			Timestamp:        since.Add(offset).UTC(),
			Amount:           decimal.New(cents, -2),
			Direction:        direction,
			Beneficiary:      beneficiary,
			IsNewBeneficiary: isNew,
		})
	}
	return txs, nil
}
