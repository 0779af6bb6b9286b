package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibbank/riskwatch/internal/domain/model"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// writeUseCaseError maps use case errors onto HTTP statuses.
func writeUseCaseError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, operation string) {
	switch {
	case errors.Is(err, model.ErrInvalidSubject):
		writeError(w, http.StatusBadRequest, "invalid subject", err.Error())
	case errors.Is(err, model.ErrInvalidSortOrder):
		writeError(w, http.StatusBadRequest, "invalid sort", err.Error())
	case errors.Is(err, model.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, "batch too large", err.Error())
	case errors.Is(err, model.ErrPortfolioNotFound):
		writeError(w, http.StatusNotFound, "assessment not found", "")
	case errors.Is(err, context.DeadlineExceeded):
		logger.WarnContext(r.Context(), operation+" timed out", "error", err)
		writeError(w, http.StatusGatewayTimeout, "request timed out", "")
	default:
		logger.ErrorContext(r.Context(), "internal error during "+operation, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
