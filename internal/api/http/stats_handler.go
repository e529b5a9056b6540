package http

import (
	"net/http"
	"time"

	"branchrent-backend/internal/domain"
)

func statsWindow(r *http.Request) (time.Time, time.Time, error) {
	from, err := queryDate(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryDate(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from == nil || to == nil {
		return time.Time{}, time.Time{}, domain.Validationf("from and to are required")
	}
	return *from, *to, nil
}

func (h *Handler) ReservationStats(w http.ResponseWriter, r *http.Request) {
	from, to, err := statsWindow(r)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	stats, err := h.svc.Stats.ReservationStats(r.Context(), principal(r), from, to)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *Handler) RefundStats(w http.ResponseWriter, r *http.Request) {
	from, to, err := statsWindow(r)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	stats, err := h.svc.Stats.RefundStats(r.Context(), principal(r), from, to)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
