package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/bibbank/riskwatch/internal/application/dto"
)

const maxRequestBytes = 1 << 20

// PortfolioAssessor runs AssessPortfolio.
type PortfolioAssessor interface {
	Execute(ctx context.Context, req dto.AssessPortfolioRequest) (dto.PortfolioResponse, error)
}

// BatchAssessor runs AssessBatch.
type BatchAssessor interface {
	Execute(ctx context.Context, req dto.AssessBatchRequest) (dto.PortfolioResponse, error)
}

// HistoryReader runs GetPortfolioHistory.
type HistoryReader interface {
	Execute(ctx context.Context, req dto.GetHistoryRequest) (dto.HistoryResponse, error)
}

// AssessmentReader runs GetPortfolioAssessment.
type AssessmentReader interface {
	Execute(ctx context.Context, id string) (dto.PortfolioResponse, error)
}

// AlertsReader runs GetRiskAlerts.
type AlertsReader interface {
	Execute(ctx context.Context, req dto.GetAlertsRequest) (dto.AlertsResponse, error)
}

// PortfolioExporter runs ExportPortfolioCSV.
type PortfolioExporter interface {
	Execute(ctx context.Context, subjectID string, w io.Writer) error
}

// RiskHandler serves the risk API.
type RiskHandler struct {
	portfolio  PortfolioAssessor
	batch      BatchAssessor
	history    HistoryReader
	assessment AssessmentReader
	alerts     AlertsReader
	export     PortfolioExporter
	logger     *slog.Logger
}

// NewRiskHandler creates a new RiskHandler.
func NewRiskHandler(
	portfolio PortfolioAssessor,
	batch BatchAssessor,
	history HistoryReader,
	assessment AssessmentReader,
	alerts AlertsReader,
	export PortfolioExporter,
	logger *slog.Logger,
) *RiskHandler {
	return &RiskHandler{
		portfolio:  portfolio,
		batch:      batch,
		history:    history,
		assessment: assessment,
		alerts:     alerts,
		export:     export,
		logger:     logger,
	}
}

func (h *RiskHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request payload", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return false
	}
	return true
}

// AssessPortfolio handles POST /api/v1/risk/portfolio.
func (h *RiskHandler) AssessPortfolio(w http.ResponseWriter, r *http.Request) {
	var req dto.AssessPortfolioRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.portfolio.Execute(r.Context(), req)
	if err != nil {
		writeUseCaseError(w, r, h.logger, err, "assess portfolio")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AssessBatch handles POST /api/v1/risk/batch.
func (h *RiskHandler) AssessBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.AssessBatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.batch.Execute(r.Context(), req)
	if err != nil {
		writeUseCaseError(w, r, h.logger, err, "assess batch")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetHistory handles GET /api/v1/risk/portfolio/{subject_id}/history.
func (h *RiskHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	req := dto.GetHistoryRequest{SubjectID: mux.Vars(r)["subject_id"]}

	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &req.Limit, "offset": &req.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+name, err.Error())
			return
		}
		*dst = n
	}

	resp, err := h.history.Execute(r.Context(), req)
	if err != nil {
		writeUseCaseError(w, r, h.logger, err, "get history")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAssessment handles GET /api/v1/risk/assessments/{id}.
func (h *RiskHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	resp, err := h.assessment.Execute(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeUseCaseError(w, r, h.logger, err, "get assessment")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAlerts handles GET /api/v1/risk/portfolio/{subject_id}/alerts.
func (h *RiskHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	req := dto.GetAlertsRequest{SubjectID: mux.Vars(r)["subject_id"]}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit", err.Error())
			return
		}
		req.Limit = n
	}

	resp, err := h.alerts.Execute(r.Context(), req)
	if err != nil {
		writeUseCaseError(w, r, h.logger, err, "get alerts")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportCSV handles GET /api/v1/risk/portfolio/{subject_id}/export.
func (h *RiskHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	subjectID := mux.Vars(r)["subject_id"]

	var buf bytes.Buffer
	if err := h.export.Execute(r.Context(), subjectID, &buf); err != nil {
		writeUseCaseError(w, r, h.logger, err, "export portfolio")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": "portfolio-" + subjectID + ".csv"}))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
