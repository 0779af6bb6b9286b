package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/valueobject"
)

// AssessPortfolioRequest is the input DTO for the AssessPortfolio use case.
type AssessPortfolioRequest struct {
	SubjectID string `json:"subject_id"`
	Sort      string `json:"sort,omitempty"`
}

// TransactionInput is a caller-supplied transaction in canonical wire form.
type TransactionInput struct {
	Timestamp        time.Time           `json:"timestamp"`
	Amount           decimal.NullDecimal `json:"amount"`
	ID               string              `json:"id"`
	Direction        string              `json:"direction"`
	Beneficiary      string              `json:"beneficiary"`
	IsNewBeneficiary bool                `json:"is_new_beneficiary"`
}

// ToModel maps the input to a domain Transaction. An unrecognised direction
// is left unset and an absent amount is flagged, so validation rejects the
// record on the offending field.
func (in TransactionInput) ToModel() model.Transaction {
	dir, _ := valueobject.DirectionFromString(in.Direction)
	tx := model.Transaction{
		ID:               in.ID,
		Timestamp:        in.Timestamp,
		Amount:           in.Amount.Decimal,
		Direction:        dir,
		Beneficiary:      in.Beneficiary,
		IsNewBeneficiary: in.IsNewBeneficiary,
	}
	if !in.Amount.Valid {
		tx.AmountIssue = "is required"
	}
	return tx
}

// AssessBatchRequest is the input DTO for the AssessBatch use case.
type AssessBatchRequest struct {
	SubjectID    string             `json:"subject_id"`
	Sort         string             `json:"sort,omitempty"`
	Transactions []TransactionInput `json:"transactions"`
}

// TransactionAssessmentResponse is one scored transaction.
type TransactionAssessmentResponse struct {
	Timestamp      time.Time            `json:"timestamp"`
	ID             string               `json:"id"`
	Amount         string               `json:"amount"`
	Direction      string               `json:"direction"`
	Beneficiary    string               `json:"beneficiary"`
	RiskLevel      string               `json:"risk_level"`
	Recommendation string               `json:"recommendation"`
	Factors        []string             `json:"factors"`
	Contributions  []model.Contribution `json:"contributions,omitempty"`
	RiskScore      int                  `json:"risk_score"`
}

// SummaryResponse is the portfolio verdict. SafePercentage is null for an empty batch.
type SummaryResponse struct {
	SafePercentage *int `json:"safe_percentage"`
	TotalCount     int  `json:"total_count"`
	HighCount      int  `json:"high_count"`
	MediumCount    int  `json:"medium_count"`
	LowCount       int  `json:"low_count"`
	Alert          bool `json:"alert"`
}

// RejectedResponse describes a batch member that was not scored.
type RejectedResponse struct {
	TransactionID string `json:"transaction_id"`
	Field         string `json:"field"`
	Reason        string `json:"reason"`
}

// PortfolioResponse is the output DTO for a portfolio or batch assessment.
type PortfolioResponse struct {
	AssessedAt   time.Time                       `json:"assessed_at"`
	WindowStart  time.Time                       `json:"window_start"`
	WindowEnd    time.Time                       `json:"window_end"`
	AssessmentID string                          `json:"assessment_id"`
	SubjectID    string                          `json:"subject_id"`
	Transactions []TransactionAssessmentResponse `json:"transactions"`
	Rejected     []RejectedResponse              `json:"rejected"`
	Summary      SummaryResponse                 `json:"summary"`
}

// GetHistoryRequest is the input DTO for listing a subject's past assessments.
type GetHistoryRequest struct {
	SubjectID string `json:"subject_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// HistoryItem is one past portfolio assessment without its transactions.
type HistoryItem struct {
	AssessedAt   time.Time       `json:"assessed_at"`
	WindowStart  time.Time       `json:"window_start"`
	WindowEnd    time.Time       `json:"window_end"`
	AssessmentID string          `json:"assessment_id"`
	Summary      SummaryResponse `json:"summary"`
}

// HistoryResponse is the output DTO for GetPortfolioHistory.
type HistoryResponse struct {
	SubjectID   string        `json:"subject_id"`
	Assessments []HistoryItem `json:"assessments"`
	Limit       int           `json:"limit"`
	Offset      int           `json:"offset"`
}

// GetAlertsRequest is the input DTO for listing a subject's recent HIGH verdicts.
type GetAlertsRequest struct {
	SubjectID string `json:"subject_id"`
	Limit     int    `json:"limit"`
}

// AlertItem is one stored HIGH verdict.
type AlertItem struct {
	AssessedAt   time.Time                     `json:"assessed_at"`
	AssessmentID string                        `json:"assessment_id"`
	Transaction  TransactionAssessmentResponse `json:"transaction"`
}

// AlertsResponse is the output DTO for GetRiskAlerts.
type AlertsResponse struct {
	SubjectID  string      `json:"subject_id"`
	Alerts     []AlertItem `json:"alerts"`
	TotalCount int         `json:"total_count"`
	Limit      int         `json:"limit"`
}

// FromSummary maps a domain summary to its DTO.
func FromSummary(s model.RiskSummary) SummaryResponse {
	return SummaryResponse{
		SafePercentage: s.SafePercentage,
		TotalCount:     s.TotalCount,
		HighCount:      s.HighCount,
		MediumCount:    s.MediumCount,
		LowCount:       s.LowCount(),
		Alert:          s.Alert,
	}
}

// FromScored maps a scored transaction to its DTO.
func FromScored(st model.ScoredTransaction) TransactionAssessmentResponse {
	return TransactionAssessmentResponse{
		ID:             st.Transaction.ID,
		Timestamp:      st.Transaction.Timestamp,
		Amount:         st.Transaction.Amount.String(),
		Direction:      st.Transaction.Direction.String(),
		Beneficiary:    st.Transaction.Beneficiary,
		RiskScore:      st.Assessment.Score,
		RiskLevel:      st.Assessment.Level.String(),
		Recommendation: st.Assessment.Recommendation.String(),
		Factors:        st.Assessment.Factors,
		Contributions:  st.Assessment.Contributions,
	}
}

// FromModel maps a portfolio assessment aggregate to the response DTO.
func FromModel(a *model.PortfolioAssessment) PortfolioResponse {
	txs := make([]TransactionAssessmentResponse, 0, len(a.Transactions()))
	for _, st := range a.Transactions() {
		txs = append(txs, FromScored(st))
	}

	rejected := make([]RejectedResponse, 0, len(a.Rejected()))
	for _, r := range a.Rejected() {
		rejected = append(rejected, RejectedResponse{
			TransactionID: r.TransactionID,
			Field:         r.Err.Field,
			Reason:        r.Err.Reason,
		})
	}

	return PortfolioResponse{
		AssessmentID: a.ID(),
		SubjectID:    a.SubjectID(),
		WindowStart:  a.WindowStart(),
		WindowEnd:    a.WindowEnd(),
		AssessedAt:   a.AssessedAt(),
		Transactions: txs,
		Rejected:     rejected,
		Summary:      FromSummary(a.Summary()),
	}
}

// FromHistory maps a stored assessment to a history item.
func FromHistory(a *model.PortfolioAssessment) HistoryItem {
	return HistoryItem{
		AssessmentID: a.ID(),
		WindowStart:  a.WindowStart(),
		WindowEnd:    a.WindowEnd(),
		AssessedAt:   a.AssessedAt(),
		Summary:      FromSummary(a.Summary()),
	}
}

// FromAlert maps a stored HIGH verdict to its DTO.
func FromAlert(a model.RiskAlert) AlertItem {
	return AlertItem{
		AssessmentID: a.AssessmentID,
		AssessedAt:   a.AssessedAt,
		Transaction:  FromScored(a.Scored),
	}
}
