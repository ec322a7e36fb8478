package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tabtally/tally/internal/auth"
	"github.com/tabtally/tally/internal/ledger"
	"github.com/tabtally/tally/internal/membership"
	"github.com/tabtally/tally/internal/middleware"
	"github.com/tabtally/tally/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognized is
// a 500 and the detail stays out of the response body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, ledger.ErrUnbalancedSplit),
		errors.Is(err, ledger.ErrParticipantNotInGroup),
		errors.Is(err, ledger.ErrInvalidRepayment),
		errors.Is(err, ledger.ErrSplitsRequiredForAmountChange):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, auth.ErrEmailExists),
		errors.Is(err, membership.ErrInvalidTransition),
		errors.Is(err, ledger.ErrRepaymentKindChange):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrWeakPassword):
		status, message = http.StatusBadRequest, err.Error()
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body", service.ErrInvalidInput)
	}
	return nil
}

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", service.ErrInvalidInput, name)
	}
	return id, nil
}
