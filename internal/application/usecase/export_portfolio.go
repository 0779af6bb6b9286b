package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bibbank/riskwatch/internal/application/dto"
)

var csvHeader = []string{
	"Transaction ID",
	"Timestamp",
	"Amount",
	"Direction",
	"Beneficiary",
	"Risk Score",
	"Risk Level",
	"Recommendation",
	"Factors",
}

// ExportPortfolioCSV is the use case for downloading a portfolio assessment as CSV.
type ExportPortfolioCSV struct {
	assess *AssessPortfolio
}

// NewExportPortfolioCSV creates a new ExportPortfolioCSV use case.
func NewExportPortfolioCSV(assess *AssessPortfolio) *ExportPortfolioCSV {
	return &ExportPortfolioCSV{assess: assess}
}

// Execute assesses the subject's portfolio and writes one row per scored
// transaction. Factors are joined with "; ".
func (uc *ExportPortfolioCSV) Execute(ctx context.Context, subjectID string, w io.Writer) error {
	resp, err := uc.assess.Execute(ctx, dto.AssessPortfolioRequest{SubjectID: subjectID})
	if err != nil {
		return err
	}
	return WriteCSV(w, resp)
}

// WriteCSV renders a portfolio response as CSV.
func WriteCSV(w io.Writer, resp dto.PortfolioResponse) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, tx := range resp.Transactions {
		row := []string{
			tx.ID,
			tx.Timestamp.UTC().Format(time.RFC3339),
			tx.Amount,
			tx.Direction,
			tx.Beneficiary,
			strconv.Itoa(tx.RiskScore),
			tx.RiskLevel,
			tx.Recommendation,
			strings.Join(tx.Factors, "; "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
