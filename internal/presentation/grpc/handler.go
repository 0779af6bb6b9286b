package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/bibbank/riskwatch/internal/application/dto"
	"github.com/bibbank/riskwatch/internal/domain/model"
)

// Use case dependencies. Each is satisfied by the matching type in usecase.
type (
	PortfolioAssessor interface {
		Execute(ctx context.Context, req dto.AssessPortfolioRequest) (dto.PortfolioResponse, error)
	}
	BatchAssessor interface {
		Execute(ctx context.Context, req dto.AssessBatchRequest) (dto.PortfolioResponse, error)
	}
	HistoryReader interface {
		Execute(ctx context.Context, req dto.GetHistoryRequest) (dto.HistoryResponse, error)
	}
	AssessmentReader interface {
		Execute(ctx context.Context, id string) (dto.PortfolioResponse, error)
	}
)

// Proto-aligned request/response message types.

// AssessPortfolioRequest represents the proto AssessPortfolioRequest message.
type AssessPortfolioRequest struct {
	SubjectID string `json:"subject_id"`
	Sort      string `json:"sort,omitempty"`
}

// AssessBatchRequest represents the proto AssessBatchRequest message.
type AssessBatchRequest struct {
	SubjectID    string                 `json:"subject_id"`
	Sort         string                 `json:"sort,omitempty"`
	Transactions []dto.TransactionInput `json:"transactions"`
}

// GetPortfolioHistoryRequest represents the proto GetPortfolioHistoryRequest message.
type GetPortfolioHistoryRequest struct {
	SubjectID string `json:"subject_id"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// GetAssessmentRequest represents the proto GetAssessmentRequest message.
type GetAssessmentRequest struct {
	AssessmentID string `json:"assessment_id"`
}

// AssessmentResponse carries one portfolio assessment.
type AssessmentResponse struct {
	AssessedAt *timestamppb.Timestamp `json:"assessed_at"`
	Assessment dto.PortfolioResponse  `json:"assessment"`
}

func toAssessmentResponse(resp dto.PortfolioResponse) *AssessmentResponse {
	return &AssessmentResponse{
		AssessedAt: timestamppb.New(resp.AssessedAt),
		Assessment: resp,
	}
}

// GetPortfolioHistoryResponse carries a page of past assessments.
type GetPortfolioHistoryResponse struct {
	History dto.HistoryResponse `json:"history"`
}

// Compile-time assertion that RiskServiceHandler implements RiskServiceServer.
var _ RiskServiceServer = (*RiskServiceHandler)(nil)

// RiskServiceHandler implements the gRPC RiskServiceServer interface.
// Role checks happen in the auth interceptor.
type RiskServiceHandler struct {
	UnimplementedRiskServiceServer
	portfolio  PortfolioAssessor
	batch      BatchAssessor
	history    HistoryReader
	assessment AssessmentReader
	logger     *slog.Logger
}

// NewRiskServiceHandler creates a new gRPC handler.
func NewRiskServiceHandler(
	portfolio PortfolioAssessor,
	batch BatchAssessor,
	history HistoryReader,
	assessment AssessmentReader,
	logger *slog.Logger,
) *RiskServiceHandler {
	return &RiskServiceHandler{
		portfolio:  portfolio,
		batch:      batch,
		history:    history,
		assessment: assessment,
		logger:     logger,
	}
}

// AssessPortfolio scores the subject's recent transactions.
func (h *RiskServiceHandler) AssessPortfolio(ctx context.Context, req *AssessPortfolioRequest) (*AssessmentResponse, error) {
	resp, err := h.portfolio.Execute(ctx, dto.AssessPortfolioRequest{
		SubjectID: req.SubjectID,
		Sort:      req.Sort,
	})
	if err != nil {
		return nil, h.toStatus(ctx, err, "AssessPortfolio")
	}
	return toAssessmentResponse(resp), nil
}

// AssessBatch scores caller-supplied transactions.
func (h *RiskServiceHandler) AssessBatch(ctx context.Context, req *AssessBatchRequest) (*AssessmentResponse, error) {
	resp, err := h.batch.Execute(ctx, dto.AssessBatchRequest{
		SubjectID:    req.SubjectID,
		Sort:         req.Sort,
		Transactions: req.Transactions,
	})
	if err != nil {
		return nil, h.toStatus(ctx, err, "AssessBatch")
	}
	return toAssessmentResponse(resp), nil
}

// GetPortfolioHistory lists a subject's stored assessments, newest first.
func (h *RiskServiceHandler) GetPortfolioHistory(ctx context.Context, req *GetPortfolioHistoryRequest) (*GetPortfolioHistoryResponse, error) {
	resp, err := h.history.Execute(ctx, dto.GetHistoryRequest{
		SubjectID: req.SubjectID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		return nil, h.toStatus(ctx, err, "GetPortfolioHistory")
	}
	return &GetPortfolioHistoryResponse{History: resp}, nil
}

// GetAssessment loads one stored assessment with its transactions.
func (h *RiskServiceHandler) GetAssessment(ctx context.Context, req *GetAssessmentRequest) (*AssessmentResponse, error) {
	if req.AssessmentID == "" {
		return nil, status.Error(codes.InvalidArgument, "assessment_id is required")
	}
	resp, err := h.assessment.Execute(ctx, req.AssessmentID)
	if err != nil {
		return nil, h.toStatus(ctx, err, "GetAssessment")
	}
	return toAssessmentResponse(resp), nil
}

// toStatus maps use case errors onto gRPC status codes.
func (h *RiskServiceHandler) toStatus(ctx context.Context, err error, method string) error {
	switch {
	case errors.Is(err, model.ErrInvalidSubject),
		errors.Is(err, model.ErrInvalidSortOrder),
		errors.Is(err, model.ErrBatchTooLarge):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrPortfolioNotFound):
		return status.Error(codes.NotFound, "assessment not found")
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.WarnContext(ctx, method+" timed out", "error", err)
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	default:
		h.logger.ErrorContext(ctx, method+" failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
