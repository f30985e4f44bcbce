package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/chefconnect/pkg/auth"
	"github.com/diagnosis/chefconnect/pkg/logger"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/service"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeChefUnavailable   = "CHEF_UNAVAILABLE"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeInternalError     = "INTERNAL_ERROR"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// writeSuccess renders {success: true, <key>: v, message?}.
func writeSuccess(w http.ResponseWriter, statusCode int, key string, v interface{}, message string) {
	body := map[string]interface{}{"success": true}
	if key != "" {
		body[key] = v
	}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, statusCode, body)
}

// respondError maps service errors onto the failure envelope. Unexpected
// errors are logged and answered without details.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Code:    CodeInvalidInput,
			Details: verr.Error(),
			Fields:  verr.FieldErrors,
		})
	case errors.Is(err, auth.ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, "Invalid or expired token", CodeUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "You do not have access to this resource", CodeForbidden)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found", CodeNotFound)
	case errors.Is(err, domain.ErrChefUnavailable):
		writeError(w, http.StatusBadRequest, "Chef is not available for bookings", CodeChefUnavailable)
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Invalid state transition",
			Code:    CodeInvalidTransition,
			Details: err.Error(),
		})
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "Resource already exists", CodeConflict)
	case errors.Is(err, service.ErrWebhookSignature):
		writeError(w, http.StatusBadRequest, "Invalid webhook signature", CodeInvalidSignature)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error", CodeInternalError)
	}
}
