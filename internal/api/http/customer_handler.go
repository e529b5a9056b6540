package http

import (
	"net/http"
	"strings"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/utils"
)

type registerCustomerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	DocumentNumber string `json:"document_number"`
}

func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req registerCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, err)
		return
	}
	c := &domain.Customer{Name: req.Name, Email: req.Email, DocumentNumber: req.DocumentNumber}
	if err := h.svc.Customers.RegisterCustomer(r.Context(), c); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	c, err := h.svc.Customers.GetCustomer(r.Context(), principal(r), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

type ratingRequest struct {
	// Rating is nullable: null clears the score.
	Rating *float64 `json:"rating"`
}

func (h *Handler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	var req ratingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, err)
		return
	}
	if err := h.svc.Customers.UpdateRating(r.Context(), principal(r), id, req.Rating); err != nil {
		respondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ArchiveCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if err := h.svc.Customers.ArchiveCustomer(r.Context(), principal(r), id); err != nil {
		respondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type couponRequest struct {
	CustomerID int32  `json:"customer_id"`
	Code       string `json:"code"`
	Kind       string `json:"kind"`
	Value      int64  `json:"value"`
	ExpiresOn  string `json:"expires_on"`
}

func (h *Handler) IssueCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, err)
		return
	}
	expires, err := utils.ParseDate(req.ExpiresOn)
	if err != nil {
		respondWithDomainError(w, domain.Validationf("expires_on: %v", err))
		return
	}
	c := &domain.Coupon{
		CustomerID: req.CustomerID,
		Code:       req.Code,
		Kind:       domain.CouponKind(strings.ToUpper(req.Kind)),
		Value:      req.Value,
		ExpiresOn:  expires,
	}
	if err := h.svc.Customers.IssueCoupon(r.Context(), principal(r), c); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}
