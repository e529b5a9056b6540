package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"

	"github.com/gorilla/mux"
)

const webhookSignatureHeader = "X-Webhook-Signature"

type draftRequest struct {
	CustomerID int32  `json:"customer_id"`
	ItemID     int32  `json:"item_id"`
	BranchID   int32  `json:"branch_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Quantity   int32  `json:"quantity"`
	Channel    string `json:"channel"`
	CouponCode string `json:"coupon_code,omitempty"`
}

// toDraft defaults the customer to the caller for customer principals.
func (req draftRequest) toDraft(p domain.Principal, channel domain.PaymentChannel) (domain.Draft, error) {
	window, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return domain.Draft{}, err
	}
	if req.Channel != "" {
		channel = domain.PaymentChannel(strings.ToUpper(req.Channel))
	}
	customerID := req.CustomerID
	if customerID == 0 && p.Role == domain.RoleCustomer {
		customerID = p.UserID
	}
	return domain.Draft{
		CustomerID: customerID,
		ItemID:     req.ItemID,
		BranchID:   req.BranchID,
		Range:      window,
		Quantity:   req.Quantity,
		Channel:    channel,
		CouponCode: strings.TrimSpace(req.CouponCode),
	}, nil
}

func (h *Handler) readDraft(r *http.Request, channel domain.PaymentChannel) (domain.Draft, error) {
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		return domain.Draft{}, err
	}
	return req.toDraft(principal(r), channel)
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	draft, err := h.readDraft(r, domain.PaymentChannelInPerson)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	q, err := h.svc.Reservations.Quote(r.Context(), principal(r), draft)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	draft, err := h.readDraft(r, domain.PaymentChannelInPerson)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	res, err := h.svc.Reservations.Create(r.Context(), principal(r), draft)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	draft, err := h.readDraft(r, domain.PaymentChannelOnline)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	res, err := h.svc.Reservations.StartCheckout(r.Context(), principal(r), draft)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	res, err := h.svc.Reservations.Get(r.Context(), principal(r), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) GetReservationByCode(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Reservations.GetByPickupCode(r.Context(), principal(r), mux.Vars(r)["code"])
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

type listReservationsResponse struct {
	Reservations []domain.Reservation `json:"reservations"`
	Total        int32                `json:"total"`
	Page         int32                `json:"page"`
	PageSize     int32                `json:"page_size,omitempty"`
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	f, err := parseReservationFilter(r)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	list, total, err := h.svc.Reservations.List(r.Context(), principal(r), f)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if list == nil {
		list = []domain.Reservation{}
	}
	if f.Page < 1 {
		f.Page = 1
	}
	respondWithJSON(w, http.StatusOK, listReservationsResponse{
		Reservations: list,
		Total:        total,
		Page:         f.Page,
		PageSize:     f.PageSize,
	})
}

func parseReservationFilter(r *http.Request) (domain.ReservationFilter, error) {
	var f domain.ReservationFilter
	for _, raw := range r.URL.Query()["state"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.States = append(f.States, domain.ReservationState(strings.ToUpper(s)))
			}
		}
	}

	var err error
	if f.CustomerID, err = queryInt32(r, "customer_id"); err != nil {
		return f, err
	}
	if f.BranchID, err = queryInt32(r, "branch_id"); err != nil {
		return f, err
	}
	if f.ItemID, err = queryInt32(r, "item_id"); err != nil {
		return f, err
	}
	if f.CreatedFrom, err = queryDate(r, "created_from"); err != nil {
		return f, err
	}
	if f.CreatedTo, err = queryDate(r, "created_to"); err != nil {
		return f, err
	}
	if f.RentalFrom, err = queryDate(r, "rental_from"); err != nil {
		return f, err
	}
	if f.RentalTo, err = queryDate(r, "rental_to"); err != nil {
		return f, err
	}

	page, err := queryInt32(r, "page")
	if err != nil {
		return f, err
	}
	if page != nil {
		f.Page = *page
	}
	size, err := queryInt32(r, "page_size")
	if err != nil {
		return f, err
	}
	if size != nil {
		f.PageSize = *size
	}
	return f, nil
}

func (h *Handler) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	res, err := h.svc.Reservations.Confirm(r.Context(), principal(r), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	res, err := h.svc.Reservations.Cancel(r.Context(), principal(r), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) QuoteRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	q, err := h.svc.Reservations.QuoteRefund(r.Context(), principal(r), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

type deliverRequest struct {
	PickupCode     string `json:"pickup_code"`
	DocumentNumber string `json:"document_number"`
}

func (h *Handler) DeliverReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	var req deliverRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, err)
		return
	}
	res, err := h.svc.Reservations.MarkDelivered(r.Context(), principal(r), id, req.PickupCode, req.DocumentNumber)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) ReturnReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	res, err := h.svc.Reservations.MarkReturned(r.Context(), principal(r), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

type finalizeResponse struct {
	Reservation *domain.Reservation `json:"reservation"`
	Refund      *domain.Refund      `json:"refund,omitempty"`
}

func (h *Handler) FinalizeReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	res, refund, err := h.svc.Reservations.Finalize(r.Context(), principal(r), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, finalizeResponse{Reservation: res, Refund: refund})
}

type paymentNotificationRequest struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// PaymentNotification is the provider's webhook. The body is authenticated
// by an HMAC-SHA256 signature when a webhook secret is configured.
func (h *Handler) PaymentNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "validation", "unreadable body")
		return
	}
	if !h.validSignature(body, r.Header.Get(webhookSignatureHeader)) {
		logger.Warn("Rejected payment notification with bad signature", "remote_addr", r.RemoteAddr)
		respondWithError(w, http.StatusUnauthorized, "unauthenticated", "invalid signature")
		return
	}

	var req paymentNotificationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondWithDomainError(w, domain.Validationf("invalid request body: %v", err))
		return
	}
	status, err := domain.ParsePaymentStatus(req.Status)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if req.Reference == "" {
		respondWithDomainError(w, domain.Validationf("reference is required"))
		return
	}

	n := domain.PaymentNotification{Reference: req.Reference, Status: status}
	if err := h.svc.Reservations.HandlePaymentNotification(r.Context(), n); err != nil {
		respondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validSignature fails closed: without a configured secret every
// notification is rejected.
func (h *Handler) validSignature(body []byte, signature string) bool {
	if h.opts.WebhookSecret == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.opts.WebhookSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
