package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bibbank/riskwatch/internal/application/dto"
	"github.com/bibbank/riskwatch/internal/domain/model"
	pkgkafka "github.com/bibbank/riskwatch/pkg/kafka"
)

// PortfolioAssessor runs a portfolio assessment.
type PortfolioAssessor interface {
	Execute(ctx context.Context, req dto.AssessPortfolioRequest) (dto.PortfolioResponse, error)
}

// AssessmentRequest is the payload on the requests topic.
type AssessmentRequest struct {
	SubjectID string `json:"subject_id"`
	Sort      string `json:"sort,omitempty"`
}

// NewAssessmentRequestHandler returns a consumer handler that assesses the
// requested subject. Malformed requests are logged and acknowledged;
// failures of the assessment itself are returned so the message is redelivered.
func NewAssessmentRequestHandler(assessor PortfolioAssessor, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		var req AssessmentRequest
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			logger.WarnContext(ctx, "dropping malformed assessment request", "error", err)
			return nil
		}
		if strings.TrimSpace(req.SubjectID) == "" {
			logger.WarnContext(ctx, "dropping assessment request without subject_id")
			return nil
		}

		resp, err := assessor.Execute(ctx, dto.AssessPortfolioRequest{SubjectID: req.SubjectID, Sort: req.Sort})
		if err != nil {
			if errors.Is(err, model.ErrInvalidSortOrder) || errors.Is(err, model.ErrInvalidSubject) {
				logger.WarnContext(ctx, "dropping invalid assessment request", "subject_id", req.SubjectID, "error", err)
				return nil
			}
			return fmt.Errorf("assess portfolio %s: %w", req.SubjectID, err)
		}

		logger.InfoContext(ctx, "assessment request processed",
			"subject_id", req.SubjectID,
			"assessment_id", resp.AssessmentID,
			"alert", resp.Summary.Alert,
		)
		return nil
	}
}
