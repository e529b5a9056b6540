package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/security"
	"branchrent-backend/internal/service"
	"branchrent-backend/internal/utils"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Services groups the application services exposed over HTTP.
type Services struct {
	Inventory    service.InventoryService
	Availability service.AvailabilityService
	Reservations service.ReservationService
	Customers    service.CustomerService
	Stats        service.StatsService
}

// Options carries the listener-level settings of the API.
type Options struct {
	AllowedOrigins []string
	// WebhookSecret signs payment provider callbacks. Empty rejects them all.
	WebhookSecret string
	// Ping reports store health for /health.
	Ping func(ctx context.Context) error
}

type Handler struct {
	svc  Services
	opts Options
	auth *authMiddleware
}

func NewHandler(svc Services, tm security.TokenManager, opts Options) *Handler {
	return &Handler{svc: svc, opts: opts, auth: &authMiddleware{tokenManager: tm}}
}

type route struct {
	method  string
	path    string
	level   SecurityLevel
	handler http.HandlerFunc
}

func (h *Handler) routes() []route {
	return []route{
		{http.MethodGet, "/health", SecurityPublic, h.Health},

		// Catalogue
		{http.MethodGet, "/api/v1/items", SecurityPublic, h.ListItems},
		{http.MethodGet, "/api/v1/items/{id:[0-9]+}", SecurityPublic, h.GetItem},
		{http.MethodPost, "/api/v1/items", SecurityAuthenticated, h.CreateItem},
		{http.MethodPut, "/api/v1/items/{id:[0-9]+}", SecurityAuthenticated, h.UpdateItem},
		{http.MethodDelete, "/api/v1/items/{id:[0-9]+}", SecurityAuthenticated, h.ArchiveItem},
		{http.MethodGet, "/api/v1/branches", SecurityPublic, h.ListBranches},
		{http.MethodPost, "/api/v1/branches", SecurityAuthenticated, h.CreateBranch},
		{http.MethodDelete, "/api/v1/branches/{id:[0-9]+}", SecurityAuthenticated, h.ArchiveBranch},

		// Inventory ledger
		{http.MethodGet, "/api/v1/items/{id:[0-9]+}/stock", SecurityAuthenticated, h.ListStock},
		{http.MethodPost, "/api/v1/items/{id:[0-9]+}/stock", SecurityAuthenticated, h.StockItem},
		{http.MethodPatch, "/api/v1/items/{id:[0-9]+}/stock/{branch_id:[0-9]+}", SecurityAuthenticated, h.AdjustStock},
		{http.MethodDelete, "/api/v1/items/{id:[0-9]+}/stock/{branch_id:[0-9]+}", SecurityAuthenticated, h.RemoveStock},

		// Availability and pricing
		{http.MethodGet, "/api/v1/availability", SecurityPublic, h.SearchAvailability},
		{http.MethodPost, "/api/v1/quotes", SecurityAuthenticated, h.Quote},

		// Reservations
		{http.MethodPost, "/api/v1/reservations", SecurityAuthenticated, h.CreateReservation},
		{http.MethodPost, "/api/v1/checkouts", SecurityAuthenticated, h.StartCheckout},
		{http.MethodGet, "/api/v1/reservations", SecurityAuthenticated, h.ListReservations},
		{http.MethodGet, "/api/v1/reservations/by-code/{code}", SecurityAuthenticated, h.GetReservationByCode},
		{http.MethodGet, "/api/v1/reservations/{id:[0-9]+}", SecurityAuthenticated, h.GetReservation},
		{http.MethodPost, "/api/v1/reservations/{id:[0-9]+}/confirm", SecurityAuthenticated, h.ConfirmReservation},
		{http.MethodPost, "/api/v1/reservations/{id:[0-9]+}/cancel", SecurityAuthenticated, h.CancelReservation},
		{http.MethodGet, "/api/v1/reservations/{id:[0-9]+}/refund-quote", SecurityAuthenticated, h.QuoteRefund},
		{http.MethodPost, "/api/v1/reservations/{id:[0-9]+}/deliver", SecurityAuthenticated, h.DeliverReservation},
		{http.MethodPost, "/api/v1/reservations/{id:[0-9]+}/return", SecurityAuthenticated, h.ReturnReservation},
		{http.MethodPost, "/api/v1/reservations/{id:[0-9]+}/finalize", SecurityAuthenticated, h.FinalizeReservation},
		{http.MethodPost, "/api/v1/payments/notifications", SecurityPublic, h.PaymentNotification},

		// Customers and coupons
		{http.MethodPost, "/api/v1/customers", SecurityPublic, h.RegisterCustomer},
		{http.MethodGet, "/api/v1/customers/{id:[0-9]+}", SecurityAuthenticated, h.GetCustomer},
		{http.MethodPut, "/api/v1/customers/{id:[0-9]+}/rating", SecurityAuthenticated, h.UpdateRating},
		{http.MethodDelete, "/api/v1/customers/{id:[0-9]+}", SecurityAuthenticated, h.ArchiveCustomer},
		{http.MethodPost, "/api/v1/coupons", SecurityAuthenticated, h.IssueCoupon},

		// Reports
		{http.MethodGet, "/api/v1/stats/reservations", SecurityAuthenticated, h.ReservationStats},
		{http.MethodGet, "/api/v1/stats/refunds", SecurityAuthenticated, h.RefundStats},
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	for _, rt := range h.routes() {
		router.HandleFunc(rt.path, h.auth.require(rt.level, rt.handler)).Methods(rt.method)
	}
}

// NewRouter builds the full API handler with request logging and CORS.
func NewRouter(svc Services, tm security.TokenManager, opts Options) http.Handler {
	router := mux.NewRouter()
	router.Use(requestLogger)
	NewHandler(svc, tm, opts).RegisterRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

// NewServer wraps the handler with the listener timeouts used in production.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.opts.Ping != nil {
		if err := h.opts.Ping(r.Context()); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// principal is only called behind SecurityAuthenticated routes.
func principal(r *http.Request) domain.Principal {
	p, _ := PrincipalFromContext(r.Context())
	return p
}

func pathID(r *http.Request, name string) (int32, error) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	if err != nil {
		return 0, domain.Validationf("invalid %s", name)
	}
	return int32(v), nil
}

func queryInt32(r *http.Request, name string) (*int32, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, domain.Validationf("invalid %s: %q", name, raw)
	}
	out := int32(v)
	return &out, nil
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(raw)
	if err != nil {
		return nil, domain.Validationf("invalid %s: %v", name, err)
	}
	return &t, nil
}

func parseRange(start, end string) (domain.DateRange, error) {
	s, err := utils.ParseDate(start)
	if err != nil {
		return domain.DateRange{}, domain.Validationf("start_date: %v", err)
	}
	e, err := utils.ParseDate(end)
	if err != nil {
		return domain.DateRange{}, domain.Validationf("end_date: %v", err)
	}
	return domain.NewDateRange(s, e)
}
