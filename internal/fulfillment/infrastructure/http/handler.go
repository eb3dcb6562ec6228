package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/application"
	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/domain"
)

type Handler struct {
	log       *slog.Logger
	processor *application.Processor
	orders    application.OrderRepository
	tracer    trace.Tracer
}

func NewHandler(log *slog.Logger, processor *application.Processor, orders application.OrderRepository) *Handler {
	return &Handler{
		log:       log,
		processor: processor,
		orders:    orders,
		tracer:    otel.Tracer("fulfillment-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/process", h.processOrder)
	return r
}

func (h *Handler) processOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ProcessOrder")
	defer span.End()

	orderID, err := h.processor.Process(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"order_id": orderID})
}

type createOrderReq struct {
	ID       string   `json:"id"`
	Products []string `json:"products"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	o := domain.Order{ID: req.ID}
	for _, productID := range req.Products {
		o.Products = append(o.Products, domain.Product{ID: productID})
	}
	if err := h.orders.Save(ctx, o); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"order_id": o.ID})
}

type orderItemResp struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Available    int    `json:"available"`
	LeadTimeDays int    `json:"lead_time_days"`
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	o, err := h.orders.FindOrderWithProducts(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := make([]orderItemResp, 0, len(o.Products))
	for _, p := range o.Products {
		items = append(items, orderItemResp{
			ID:           p.ID,
			Name:         p.Name,
			Type:         string(p.Type),
			Available:    p.Available,
			LeadTimeDays: p.LeadTimeDays,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": o.ID, "products": items})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedProductType):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPersistence):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		h.log.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
