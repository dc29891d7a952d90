package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orderlab/order-service/internal/coordinator"
	"github.com/orderlab/order-service/internal/order/domain"
)

// requestTimeout bounds the downstream work behind a single HTTP request.
// A stalled database or publish call fails the request instead of pinning
// the connection open.
const requestTimeout = 15 * time.Second

// OrderService is the slice of the lifecycle coordinator the handlers need.
type OrderService interface {
	CreateOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error)
	GetOrder(ctx context.Context, id int) (*domain.Order, error)
}

// CycleRunner triggers one poll-and-handle cycle against the work queue.
type CycleRunner interface {
	RunOnce(ctx context.Context) (coordinator.CycleStats, error)
}

// Pinger is the slice of the store the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler exposes the order lifecycle over HTTP.
type Handler struct {
	lifecycle OrderService
	worker    CycleRunner
	store     Pinger
}

func NewHandler(lifecycle OrderService, worker CycleRunner, store Pinger) *Handler {
	return &Handler{lifecycle: lifecycle, worker: worker, store: store}
}

// CreateOrder validates the request, persists the order, and reports the
// publish outcome. A partial publish still returns the persisted order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	draft, err := domain.NewDraft(req.Product, req.Quantity, req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ord, err := h.lifecycle.CreateOrder(ctx, draft)

	var partial *domain.PartialPublishError
	switch {
	case errors.As(err, &partial):
		// The store write succeeded; report the gap distinctly instead of
		// masking it as a total failure.
		writeJSON(w, http.StatusBadGateway, PartialCreateResponse{
			Order:          mapOrderToResponse(ord),
			FailedChannels: partial.Channels,
		})
	case err != nil:
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
	default:
		writeJSON(w, http.StatusCreated, mapOrderToResponse(ord))
	}
}

// ProcessOrders runs one poll-and-handle cycle and reports the counts.
func (h *Handler) ProcessOrders(w http.ResponseWriter, r *http.Request) {
	stats, err := h.worker.RunOnce(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "queue_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetOrderByID retrieves a single order.
func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_order_id", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ord, err := h.lifecycle.GetOrder(ctx, id)
	if errors.Is(err, domain.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(ord))
}

// Healthz reports liveness including store connectivity.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store_unreachable", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
