package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, errCode, message string) {
	respondWithJSON(w, code, errorResponse{Error: message, Code: errCode})
}

// respondWithDomainError maps the domain error taxonomy onto HTTP statuses.
// Unclassified errors are logged and reported without detail.
func respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondWithError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		respondWithError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, domain.ErrCouponAlreadyUsed):
		respondWithError(w, http.StatusConflict, "coupon_already_used", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		respondWithError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrExternalProvider):
		respondWithError(w, http.StatusBadGateway, "external_provider", err.Error())
	default:
		logger.Error("Unhandled request error", "error", err)
		respondWithError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}
