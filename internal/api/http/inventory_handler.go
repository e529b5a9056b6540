package http

import (
	"net/http"

	"branchrent-backend/internal/domain"
)

type itemRequest struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	DailyPriceCents      int64  `json:"daily_price_cents"`
	MinDays              int32  `json:"min_days"`
	MaxDays              int32  `json:"max_days"`
	FullRefundDays       int32  `json:"full_refund_days"`
	PartialRefundDays    int32  `json:"partial_refund_days"`
	ZeroRefundDays       int32  `json:"zero_refund_days"`
	PartialRefundPercent int32  `json:"partial_refund_percent"`
}

func (req itemRequest) toItem(id int32) *domain.Item {
	return &domain.Item{
		ID:                   id,
		Name:                 req.Name,
		Description:          req.Description,
		DailyPriceCents:      req.DailyPriceCents,
		MinDays:              req.MinDays,
		MaxDays:              req.MaxDays,
		FullRefundDays:       req.FullRefundDays,
		PartialRefundDays:    req.PartialRefundDays,
		ZeroRefundDays:       req.ZeroRefundDays,
		PartialRefundPercent: req.PartialRefundPercent,
	}
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Inventory.ListItems(r.Context())
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	item, err := h.svc.Inventory.GetItem(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, err)
		return
	}
	item := req.toItem(0)
	if err := h.svc.Inventory.CreateItem(r.Context(), principal(r), item); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, err)
		return
	}
	item := req.toItem(id)
	if err := h.svc.Inventory.UpdateItem(r.Context(), principal(r), item); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (h *Handler) ArchiveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if err := h.svc.Inventory.ArchiveItem(r.Context(), principal(r), id); err != nil {
		respondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type branchRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.svc.Inventory.ListBranches(r.Context())
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if branches == nil {
		branches = []domain.Branch{}
	}
	respondWithJSON(w, http.StatusOK, branches)
}

func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, err)
		return
	}
	b := &domain.Branch{Name: req.Name, Address: req.Address, Email: req.Email, Active: true}
	if err := h.svc.Inventory.CreateBranch(r.Context(), principal(r), b); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, b)
}

func (h *Handler) ArchiveBranch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if err := h.svc.Inventory.ArchiveBranch(r.Context(), principal(r), id); err != nil {
		respondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	rows, err := h.svc.Inventory.ListStock(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if rows == nil {
		rows = []domain.BranchStock{}
	}
	respondWithJSON(w, http.StatusOK, rows)
}

type stockRequest struct {
	BranchID int32 `json:"branch_id"`
	Total    int32 `json:"total"`
}

func (h *Handler) StockItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, err)
		return
	}
	stock, err := h.svc.Inventory.StockItem(r.Context(), principal(r), id, req.BranchID, req.Total)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, stock)
}

type adjustStockRequest struct {
	Delta int32 `json:"delta"`
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	branchID, err := pathID(r, "branch_id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, err)
		return
	}
	stock, err := h.svc.Inventory.AdjustStock(r.Context(), principal(r), id, branchID, req.Delta)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stock)
}

func (h *Handler) RemoveStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	branchID, err := pathID(r, "branch_id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if err := h.svc.Inventory.RemoveStock(r.Context(), principal(r), id, branchID); err != nil {
		respondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchAvailability answers GET /availability?item_id=&start_date=&end_date=
// with optional branch_id and quantity (default 1).
func (h *Handler) SearchAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	itemID, err := queryInt32(r, "item_id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if itemID == nil {
		respondWithDomainError(w, domain.Validationf("item_id is required"))
		return
	}
	branchID, err := queryInt32(r, "branch_id")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	window, err := parseRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	quantity := int32(1)
	if qty, err := queryInt32(r, "quantity"); err != nil {
		respondWithDomainError(w, err)
		return
	} else if qty != nil {
		quantity = *qty
	}

	out, err := h.svc.Availability.Search(r.Context(), *itemID, branchID, window, quantity)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}
