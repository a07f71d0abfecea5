package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/ordering"
)

const maxBodyBytes = 1 << 20

// OrderHandlers обслуживает эндпоинты /orders и заказы клиента.
type OrderHandlers struct {
	orders  OrderService
	reports ReportService
	logger  *log.Entry
}

// CustomerRoutes регистрирует /customers/{customerID}/orders.
func (h *OrderHandlers) CustomerRoutes(r chi.Router) {
	r.Post("/", h.createOrder)
	r.Get("/", h.listCustomerOrders)
}

// Routes регистрирует /orders.
func (h *OrderHandlers) Routes(r chi.Router) {
	r.Get("/", h.searchOrders)
	r.Get("/summary", h.summarize)
	r.Get("/number/{orderNumber}", h.getOrderByNumber)
	r.Get("/status/{status}", h.listByStatus)
	r.Get("/{orderID}", h.getOrder)
	r.Get("/{orderID}/timeline", h.getTimeline)
	r.Put("/{orderID}", h.updateOrder)
	r.Put("/{orderID}/status", h.updateStatus)
	r.Put("/{orderID}/payment-status", h.updatePaymentStatus)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := strings.TrimSpace(chi.URLParam(r, "customerID"))

	var body createOrderRequest
	if err := decodeJSON(r, &body); err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}

	order, err := h.orders.CreateOrder(ctx, body.toCommand(customerID))
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	w.Header().Set("Location", apiPrefix+"/orders/"+order.ID)
	writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (h *OrderHandlers) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := strings.TrimSpace(chi.URLParam(r, "customerID"))
	query := r.URL.Query()

	if !hasPaging(query) {
		orders, err := h.orders.ListOrdersForCustomer(ctx, customerID)
		if err != nil {
			writeServiceError(ctx, w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newOrderList(orders))
		return
	}

	page, err := parsePageRequest(query)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	result, err := h.orders.ListOrdersForCustomerPage(ctx, customerID, page)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderPage(result))
}

func (h *OrderHandlers) searchOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter, err := ordering.BuildFilter(searchParams(query), h.orders.Location())
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	page, err := parsePageRequest(query)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	result, err := h.orders.SearchOrders(ctx, filter, page)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderPage(result))
}

func (h *OrderHandlers) summarize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := ordering.BuildFilter(searchParams(r.URL.Query()), h.orders.Location())
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	summary, err := h.reports.Summarize(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(summary))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *OrderHandlers) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.orders.GetOrderByNumber(ctx, chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *OrderHandlers) getTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events, err := h.orders.GetOrderTimeline(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTimeline(events))
}

func (h *OrderHandlers) listByStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := domain.ParseOrderStatus(chi.URLParam(r, "status"))
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	page, err := parsePageRequest(r.URL.Query())
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	result, err := h.orders.ListOrdersByStatus(ctx, status, page)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderPage(result))
}

func (h *OrderHandlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body updateOrderRequest
	if err := decodeJSON(r, &body); err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	cmd, err := body.toCommand()
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	order, err := h.orders.UpdateOrder(ctx, chi.URLParam(r, "orderID"), cmd)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("status")
	if strings.TrimSpace(raw) == "" {
		writeServiceError(ctx, w, h.logger, domain.Validationf("status query parameter is required"))
		return
	}
	status, err := domain.ParseOrderStatus(raw)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	order, err := h.orders.UpdateOrderStatus(ctx, chi.URLParam(r, "orderID"), status)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *OrderHandlers) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("paymentStatus")
	if strings.TrimSpace(raw) == "" {
		writeServiceError(ctx, w, h.logger, domain.Validationf("paymentStatus query parameter is required"))
		return
	}
	status, err := domain.ParsePaymentStatus(raw)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	order, err := h.orders.UpdatePaymentStatus(ctx, chi.URLParam(r, "orderID"), status)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

// decodeJSON читает тело запроса; пустое тело и неизвестные поля считаются ошибкой валидации.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validationf("request body is required")
		}
		return domain.Validationf("malformed request body: %v", err)
	}
	return nil
}
