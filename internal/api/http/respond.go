package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
}

type listBody struct {
	Items      any   `json:"items"`
	TotalCount int32 `json:"total_count"`
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, errorBody{Error: msg})
}

// respondServiceError maps a service error onto a status code. Client errors
// carry their message; everything else gets a generic body.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	switch {
	case code == http.StatusServiceUnavailable:
		logger.Error("Request failed after retry", "path", r.URL.Path, "error", err)
		respondError(w, code, "temporarily unable to complete the request, try again")
	case code >= http.StatusInternalServerError:
		logger.Error("Request failed", "path", r.URL.Path, "error", err)
		respondError(w, code, "internal server error")
	default:
		respondError(w, code, err.Error())
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOutOfOrderTransition),
		errors.Is(err, domain.ErrAlreadyProcessed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingEvidence),
		errors.Is(err, domain.ErrMissingReason),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidStep),
		errors.Is(err, domain.ErrInvalidDecision),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, storage.ErrFileEmpty):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrTypeNotAllowed):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrSettlementFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}

func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return int32(id), nil
}

// parsePage reads page and page_size query parameters. Absent values are 0
// and left to the service defaults.
func parsePage(r *http.Request) (int32, int32) {
	q := r.URL.Query()
	page, _ := strconv.ParseInt(q.Get("page"), 10, 32)
	size, _ := strconv.ParseInt(q.Get("page_size"), 10, 32)
	return int32(page), int32(size)
}
