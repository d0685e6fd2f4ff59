package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sasikola/mb-server/internal/apperrors"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// MessageResponse is the body of responses that only carry a message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, ErrorResponse{Error: message})
}

// RespondServiceError maps a service error to its status code.
// Unexpected errors are logged and answered with a generic message.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("failed to "+action, zap.Error(err), zap.String("path", r.URL.Path))
		h.RespondError(w, status, "internal server error")
		return
	}

	h.Logger.Debug("request rejected", zap.String("action", action), zap.Error(err))
	h.RespondError(w, status, apperrors.Message(err))
}

// RespondBadBody answers a request whose body could not be read or parsed
func (h *BaseHandler) RespondBadBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	h.Logger.Debug("invalid request body", zap.Error(err))
	h.RespondError(w, http.StatusBadRequest, "invalid request body")
}

// decodeJSON decodes the request body into dst
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return nil
}
