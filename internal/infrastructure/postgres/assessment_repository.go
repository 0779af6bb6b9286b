package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/valueobject"
	pgutil "github.com/bibbank/riskwatch/pkg/postgres"
)

// AssessmentRepository implements port.AssessmentRepository using PostgreSQL.
type AssessmentRepository struct {
	db pgutil.DB
}

// NewAssessmentRepository creates a new PostgreSQL-backed assessment repository.
func NewAssessmentRepository(db pgutil.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const portfolioColumns = `
	id::text, subject_id, window_start, window_end,
	total_count, high_count, medium_count, safe_percentage, alert,
	assessed_at`

// Save persists a portfolio assessment and its transaction assessments in one transaction.
func (r *AssessmentRepository) Save(ctx context.Context, a *model.PortfolioAssessment) error {
	return pgutil.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		summary := a.Summary()

		_, err := tx.Exec(ctx, `
			INSERT INTO portfolio_assessments (
				id, subject_id, window_start, window_end,
				total_count, high_count, medium_count, low_count,
				rejected_count, safe_percentage, alert, assessed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			a.ID(),
			a.SubjectID(),
			a.WindowStart(),
			a.WindowEnd(),
			summary.TotalCount,
			summary.HighCount,
			summary.MediumCount,
			summary.LowCount(),
			len(a.Rejected()),
			summary.SafePercentage,
			summary.Alert,
			a.AssessedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to save portfolio assessment: %w", err)
		}

		if len(a.Transactions()) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, st := range a.Transactions() {
			contributions, err := json.Marshal(st.Assessment.Contributions)
			if err != nil {
				return fmt.Errorf("failed to encode contributions for %s: %w", st.Transaction.ID, err)
			}
			batch.Queue(`
				INSERT INTO transaction_assessments (
					portfolio_assessment_id, position, transaction_id, occurred_at,
					amount, direction, beneficiary, is_new_beneficiary,
					risk_score, risk_level, recommendation, factors, contributions
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
				a.ID(),
				i,
				st.Transaction.ID,
				st.Transaction.Timestamp,
				st.Transaction.Amount,
				st.Transaction.Direction.String(),
				st.Transaction.Beneficiary,
				st.Transaction.IsNewBeneficiary,
				st.Assessment.Score,
				st.Assessment.Level.String(),
				st.Assessment.Recommendation.String(),
				st.Assessment.Factors,
				contributions,
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save transaction assessments: %w", err)
		}
		return nil
	})
}

// FindByID retrieves an assessment and its transactions. It returns nil, nil
// when no assessment has the given id.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*model.PortfolioAssessment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := r.db.QueryRow(ctx,
		`SELECT `+portfolioColumns+` FROM portfolio_assessments WHERE id = $1`, id)

	header, err := scanPortfolio(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan portfolio assessment: %w", err)
	}

	txs, err := r.loadTransactions(ctx, header.id)
	if err != nil {
		return nil, err
	}

	return header.toModel(txs), nil
}

// FindBySubject lists a subject's assessments newest first, without transactions.
func (r *AssessmentRepository) FindBySubject(ctx context.Context, subjectID string, limit, offset int) ([]*model.PortfolioAssessment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+portfolioColumns+`
		FROM portfolio_assessments
		WHERE subject_id = $1
		ORDER BY assessed_at DESC, id
		LIMIT $2 OFFSET $3`,
		subjectID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio assessments: %w", err)
	}
	defer rows.Close()

	var out []*model.PortfolioAssessment
	for rows.Next() {
		header, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio assessment row: %w", err)
		}
		out = append(out, header.toModel(nil))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate portfolio assessments: %w", err)
	}

	return out, nil
}

type portfolioRow struct {
	windowStart time.Time
	windowEnd   time.Time
	assessedAt  time.Time
	safe        *int
	id          string
	subjectID   string
	total       int
	high        int
	medium      int
	alert       bool
}

func scanPortfolio(row pgx.Row) (portfolioRow, error) {
	var p portfolioRow
	err := row.Scan(
		&p.id, &p.subjectID, &p.windowStart, &p.windowEnd,
		&p.total, &p.high, &p.medium, &p.safe, &p.alert,
		&p.assessedAt,
	)
	return p, err
}

func (p portfolioRow) toModel(txs []model.ScoredTransaction) *model.PortfolioAssessment {
	return model.ReconstructPortfolioAssessment(
		p.id, p.subjectID,
		p.windowStart.UTC(), p.windowEnd.UTC(), p.assessedAt.UTC(),
		txs,
		model.RiskSummary{
			TotalCount:     p.total,
			HighCount:      p.high,
			MediumCount:    p.medium,
			SafePercentage: p.safe,
			Alert:          p.alert,
		},
	)
}

const scoredColumns = `
	t.transaction_id, t.occurred_at, t.amount, t.direction, t.beneficiary,
	t.is_new_beneficiary, t.risk_score, t.risk_level, t.recommendation,
	t.factors, t.contributions`

func (r *AssessmentRepository) loadTransactions(ctx context.Context, assessmentID string) ([]model.ScoredTransaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+scoredColumns+`
		FROM transaction_assessments t
		WHERE t.portfolio_assessment_id = $1
		ORDER BY t.position`,
		assessmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction assessments: %w", err)
	}
	defer rows.Close()

	txs := make([]model.ScoredTransaction, 0)
	for rows.Next() {
		var sr scoredRow
		if err := rows.Scan(sr.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan transaction assessment: %w", err)
		}
		st, err := sr.toModel()
		if err != nil {
			return nil, err
		}
		txs = append(txs, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction assessments: %w", err)
	}

	return txs, nil
}

// FindHighRisk lists the subject's HIGH transactions, most recent occurrence
// first, each taken from the latest assessment that rated it HIGH.
func (r *AssessmentRepository) FindHighRisk(ctx context.Context, subjectID string, limit int) ([]model.RiskAlert, error) {
	rows, err := r.db.Query(ctx, `
		SELECT * FROM (
			SELECT DISTINCT ON (t.transaction_id)
				p.id::text AS assessment_id, p.assessed_at, `+scoredColumns+`
			FROM transaction_assessments t
			JOIN portfolio_assessments p ON p.id = t.portfolio_assessment_id
			WHERE p.subject_id = $1 AND t.risk_level = $2
			ORDER BY t.transaction_id, p.assessed_at DESC
		) latest
		ORDER BY occurred_at DESC, transaction_id
		LIMIT $3`,
		subjectID, valueobject.RiskLevelHigh.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query high risk transactions: %w", err)
	}
	defer rows.Close()

	alerts := make([]model.RiskAlert, 0)
	for rows.Next() {
		var (
			alert model.RiskAlert
			sr    scoredRow
		)
		dest := append([]any{&alert.AssessmentID, &alert.AssessedAt}, sr.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan high risk transaction: %w", err)
		}
		if alert.Scored, err = sr.toModel(); err != nil {
			return nil, err
		}
		alert.AssessedAt = alert.AssessedAt.UTC()
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate high risk transactions: %w", err)
	}

	return alerts, nil
}

type scoredRow struct {
	occurredAt       time.Time
	amount           decimal.Decimal
	id               string
	direction        string
	beneficiary      string
	level            string
	recommendation   string
	factors          []string
	contributionsRaw []byte
	score            int
	isNew            bool
}

func (sr *scoredRow) dest() []any {
	return []any{
		&sr.id, &sr.occurredAt, &sr.amount, &sr.direction, &sr.beneficiary,
		&sr.isNew, &sr.score, &sr.level, &sr.recommendation,
		&sr.factors, &sr.contributionsRaw,
	}
}

func (sr *scoredRow) toModel() (model.ScoredTransaction, error) {
	dir, err := valueobject.DirectionFromString(sr.direction)
	if err != nil {
		return model.ScoredTransaction{}, fmt.Errorf("failed to parse direction: %w", err)
	}
	level, err := valueobject.RiskLevelFromString(sr.level)
	if err != nil {
		return model.ScoredTransaction{}, fmt.Errorf("failed to parse risk level: %w", err)
	}
	rec, err := valueobject.RecommendationFromString(sr.recommendation)
	if err != nil {
		return model.ScoredTransaction{}, fmt.Errorf("failed to parse recommendation: %w", err)
	}
	var contributions []model.Contribution
	if err := json.Unmarshal(sr.contributionsRaw, &contributions); err != nil {
		return model.ScoredTransaction{}, fmt.Errorf("failed to decode contributions: %w", err)
	}

	return model.ScoredTransaction{
		Transaction: model.Transaction{
			ID:               sr.id,
			Timestamp:        sr.occurredAt.UTC(),
			Amount:           sr.amount,
			Direction:        dir,
			Beneficiary:      sr.beneficiary,
			IsNewBeneficiary: sr.isNew,
		},
		Assessment: model.RiskAssessment{
			TransactionID:  sr.id,
			Score:          sr.score,
			Level:          level,
			Recommendation: rec,
			Factors:        sr.factors,
			Contributions:  contributions,
		},
	}, nil
}
