package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/security/validation"
	"github.com/username/portfoliodesk/backend/src/services"
	"github.com/username/portfoliodesk/backend/src/utils"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// maxJSONBodyBytes caps request bodies of the JSON endpoints.
const maxJSONBodyBytes = 1 << 20

// GetRequestIDFromContext returns the ID assigned by ContextualLoggerMiddleware.
func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}

// parseIDParam reads the {id} URL parameter.
func parseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// sendServiceError maps service and validation errors to HTTP statuses.
// Anything unrecognised is logged and reported as a 500 with fallbackMsg and the request ID.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	log := logger.FromContext(r.Context())

	var refErr *services.ReferencedError
	switch {
	case errors.As(err, &refErr):
		log.Info("Delete refused, node still referenced", "references", refErr.References)
		utils.SendJSON(w, struct {
			Error      string                    `json:"error"`
			References models.TaxonomyReferences `json:"references"`
		}{refErr.Error(), refErr.References}, http.StatusConflict)
	case errors.Is(err, validation.ErrValidationFailed),
		errors.Is(err, services.ErrParsingFailed),
		errors.Is(err, services.ErrTradeAlreadyExecuted):
		log.Warn("Rejected request", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrConflict):
		log.Warn("Conflicting request", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	default:
		log.Error(fallbackMsg, "path", r.URL.Path, "error", err)
		body := map[string]string{"error": fallbackMsg}
		if requestID, ok := GetRequestIDFromContext(r.Context()); ok {
			body["requestId"] = requestID
		}
		utils.SendJSON(w, body, http.StatusInternalServerError)
	}
}
