package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/bibbank/riskwatch/internal/application/dto"
	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/port"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultAlertsLimit  = 50
	maxAlertsLimit      = 100
)

// GetPortfolioHistory is the use case for listing a subject's past assessments.
type GetPortfolioHistory struct {
	repo port.AssessmentRepository
}

// NewGetPortfolioHistory creates a new GetPortfolioHistory use case.
func NewGetPortfolioHistory(repo port.AssessmentRepository) *GetPortfolioHistory {
	return &GetPortfolioHistory{repo: repo}
}

// Execute lists summaries newest first. Limit defaults to 20 and is capped at 100.
func (uc *GetPortfolioHistory) Execute(ctx context.Context, req dto.GetHistoryRequest) (dto.HistoryResponse, error) {
	subjectID := strings.TrimSpace(req.SubjectID)
	if subjectID == "" {
		return dto.HistoryResponse{}, model.ErrInvalidSubject
	}

	limit := req.Limit
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	offset := max(req.Offset, 0)

	assessments, err := uc.repo.FindBySubject(ctx, subjectID, limit, offset)
	if err != nil {
		return dto.HistoryResponse{}, fmt.Errorf("failed to list assessments: %w", err)
	}

	items := make([]dto.HistoryItem, 0, len(assessments))
	for _, a := range assessments {
		items = append(items, dto.FromHistory(a))
	}

	return dto.HistoryResponse{
		SubjectID:   subjectID,
		Assessments: items,
		Limit:       limit,
		Offset:      offset,
	}, nil
}

// GetPortfolioAssessment is the use case for retrieving one stored assessment.
type GetPortfolioAssessment struct {
	repo port.AssessmentRepository
}

// NewGetPortfolioAssessment creates a new GetPortfolioAssessment use case.
func NewGetPortfolioAssessment(repo port.AssessmentRepository) *GetPortfolioAssessment {
	return &GetPortfolioAssessment{repo: repo}
}

// Execute retrieves a portfolio assessment by ID, including its transactions.
func (uc *GetPortfolioAssessment) Execute(ctx context.Context, id string) (dto.PortfolioResponse, error) {
	assessment, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return dto.PortfolioResponse{}, fmt.Errorf("failed to find assessment: %w", err)
	}
	if assessment == nil {
		return dto.PortfolioResponse{}, fmt.Errorf("%w: %s", model.ErrPortfolioNotFound, id)
	}
	return dto.FromModel(assessment), nil
}

// GetRiskAlerts is the use case for listing a subject's recent HIGH verdicts.
type GetRiskAlerts struct {
	repo port.AssessmentRepository
}

// NewGetRiskAlerts creates a new GetRiskAlerts use case.
func NewGetRiskAlerts(repo port.AssessmentRepository) *GetRiskAlerts {
	return &GetRiskAlerts{repo: repo}
}

// Execute lists stored HIGH transactions, most recent first. Limit defaults
// to 50 and is capped at 100.
func (uc *GetRiskAlerts) Execute(ctx context.Context, req dto.GetAlertsRequest) (dto.AlertsResponse, error) {
	subjectID := strings.TrimSpace(req.SubjectID)
	if subjectID == "" {
		return dto.AlertsResponse{}, model.ErrInvalidSubject
	}

	limit := req.Limit
	switch {
	case limit <= 0:
		limit = defaultAlertsLimit
	case limit > maxAlertsLimit:
		limit = maxAlertsLimit
	}

	alerts, err := uc.repo.FindHighRisk(ctx, subjectID, limit)
	if err != nil {
		return dto.AlertsResponse{}, fmt.Errorf("failed to list alerts: %w", err)
	}

	items := make([]dto.AlertItem, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, dto.FromAlert(a))
	}

	return dto.AlertsResponse{
		SubjectID:  subjectID,
		Alerts:     items,
		TotalCount: len(items),
		Limit:      limit,
	}, nil
}
