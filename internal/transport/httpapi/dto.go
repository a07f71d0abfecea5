package httpapi

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/ordering"
)

// money выводит сумму JSON-числом ровно с двумя знаками после точки.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type createOrderRequest struct {
	ShippingAddress string   `json:"shippingAddress"`
	ShippingPhone   string   `json:"shippingPhone"`
	ShippingName    string   `json:"shippingName"`
	PaymentMethod   string   `json:"paymentMethod"`
	Notes           string   `json:"notes"`
	CartItemIDs     []string `json:"cartItemIds"`
}

func (r createOrderRequest) toCommand(customerID string) ordering.CreateOrderRequest {
	return ordering.CreateOrderRequest{
		CustomerID:      customerID,
		ShippingAddress: r.ShippingAddress,
		ShippingPhone:   r.ShippingPhone,
		ShippingName:    r.ShippingName,
		PaymentMethod:   r.PaymentMethod,
		Notes:           r.Notes,
		CartItemIDs:     r.CartItemIDs,
	}
}

type updateOrderRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
	AdminNotes    *string `json:"adminNotes"`
}

func (r updateOrderRequest) toCommand() (ordering.UpdateOrderRequest, error) {
	var cmd ordering.UpdateOrderRequest
	if r.Status != nil {
		status, err := domain.ParseOrderStatus(*r.Status)
		if err != nil {
			return ordering.UpdateOrderRequest{}, err
		}
		cmd.Status = &status
	}
	if r.PaymentStatus != nil {
		status, err := domain.ParsePaymentStatus(*r.PaymentStatus)
		if err != nil {
			return ordering.UpdateOrderRequest{}, err
		}
		cmd.PaymentStatus = &status
	}
	cmd.AdminNotes = r.AdminNotes
	return cmd, nil
}

type orderItemResponse struct {
	ID          string      `json:"id"`
	ProductID   *string     `json:"productId"`
	ProductName string      `json:"productName"`
	UnitPrice   json.Number `json:"unitPrice"`
	Quantity    int         `json:"quantity"`
	Subtotal    json.Number `json:"subtotal"`
}

type orderResponse struct {
	ID              string               `json:"id"`
	OrderNumber     string               `json:"orderNumber"`
	CustomerID      string               `json:"customerId"`
	TotalAmount     json.Number          `json:"totalAmount"`
	ShippingAddress string               `json:"shippingAddress"`
	ShippingPhone   string               `json:"shippingPhone"`
	ShippingName    string               `json:"shippingName"`
	Status          domain.OrderStatus   `json:"status"`
	PaymentMethod   string               `json:"paymentMethod"`
	PaymentStatus   domain.PaymentStatus `json:"paymentStatus"`
	Notes           string               `json:"notes,omitempty"`
	AdminNotes      *string              `json:"adminNotes,omitempty"`
	Items           []orderItemResponse  `json:"items"`
	Version         int64                `json:"version"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func newOrderResponse(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   money(item.UnitPrice),
			Quantity:    item.Quantity,
			Subtotal:    money(item.Subtotal),
		})
	}
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		TotalAmount:     money(o.Total),
		ShippingAddress: o.ShippingAddress,
		ShippingPhone:   o.ShippingPhone,
		ShippingName:    o.ShippingName,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		Notes:           o.Notes,
		AdminNotes:      o.AdminNotes,
		Items:           items,
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func newOrderList(orders []domain.Order) []orderResponse {
	result := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, newOrderResponse(o))
	}
	return result
}

type orderPageResponse struct {
	Content       []orderResponse `json:"content"`
	Page          int             `json:"page"`
	Size          int             `json:"size"`
	TotalElements int64           `json:"totalElements"`
	TotalPages    int             `json:"totalPages"`
}

func newOrderPage(p domain.Page[domain.Order]) orderPageResponse {
	return orderPageResponse{
		Content:       newOrderList(p.Items),
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalItems,
		TotalPages:    p.TotalPages,
	}
}

type timelineEventResponse struct {
	Type       string    `json:"type"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newTimeline(events []domain.TimelineEvent) []timelineEventResponse {
	result := make([]timelineEventResponse, 0, len(events))
	for _, e := range events {
		result = append(result, timelineEventResponse{Type: e.Type, Reason: e.Reason, OccurredAt: e.Occurred})
	}
	return result
}

type summaryResponse struct {
	TotalOrders     int64       `json:"totalOrders"`
	PendingOrders   int64       `json:"pendingOrders"`
	ShippingOrders  int64       `json:"shippingOrders"`
	CompletedOrders int64       `json:"completedOrders"`
	CancelledOrders int64       `json:"cancelledOrders"`
	TotalRevenue    json.Number `json:"totalRevenue"`
}

func newSummaryResponse(s domain.OrderSummary) summaryResponse {
	return summaryResponse{
		TotalOrders:     s.TotalOrders,
		PendingOrders:   s.PendingOrders,
		ShippingOrders:  s.ShippingOrders,
		CompletedOrders: s.CompletedOrders,
		CancelledOrders: s.CancelledOrders,
		TotalRevenue:    money(s.TotalRevenue),
	}
}

type dashboardSummaryResponse struct {
	TotalRevenue     json.Number `json:"totalRevenue"`
	Revenue30Days    json.Number `json:"revenue30Days"`
	TotalOrders      int64       `json:"totalOrders"`
	PendingOrders    int64       `json:"pendingOrders"`
	DeliveredOrders  int64       `json:"deliveredOrders"`
	TotalCustomers   int64       `json:"totalCustomers"`
	NewCustomers     int64       `json:"newCustomers"`
	TotalProducts    int64       `json:"totalProducts"`
	LowStockProducts int64       `json:"lowStockProducts"`
	ActiveBanners    int64       `json:"activeBanners"`
	ActiveCoupons    int64       `json:"activeCoupons"`
}

type revenuePointResponse struct {
	Date    string      `json:"date"`
	Revenue json.Number `json:"revenue"`
	Orders  int64       `json:"orders"`
}

type recentOrderResponse struct {
	ID            string               `json:"id"`
	OrderNumber   string               `json:"orderNumber"`
	CustomerName  string               `json:"customerName"`
	TotalAmount   json.Number          `json:"totalAmount"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time            `json:"createdAt"`
}

type dashboardOverviewResponse struct {
	Summary      dashboardSummaryResponse `json:"summary"`
	RevenueTrend []revenuePointResponse   `json:"revenueTrend"`
	RecentOrders []recentOrderResponse    `json:"recentOrders"`
}

func newDashboardOverview(o domain.DashboardOverview) dashboardOverviewResponse {
	s := o.Summary
	resp := dashboardOverviewResponse{
		Summary: dashboardSummaryResponse{
			TotalRevenue:     money(s.TotalRevenue),
			Revenue30Days:    money(s.Revenue30Days),
			TotalOrders:      s.TotalOrders,
			PendingOrders:    s.PendingOrders,
			DeliveredOrders:  s.DeliveredOrders,
			TotalCustomers:   s.TotalCustomers,
			NewCustomers:     s.NewCustomers,
			TotalProducts:    s.TotalProducts,
			LowStockProducts: s.LowStockProducts,
			ActiveBanners:    s.ActiveBanners,
			ActiveCoupons:    s.ActiveCoupons,
		},
		RevenueTrend: make([]revenuePointResponse, 0, len(o.RevenueTrend)),
		RecentOrders: make([]recentOrderResponse, 0, len(o.RecentOrders)),
	}
	for _, p := range o.RevenueTrend {
		resp.RevenueTrend = append(resp.RevenueTrend, revenuePointResponse{
			Date:    p.Date.Format(ordering.DateLayout),
			Revenue: money(p.Revenue),
			Orders:  p.Orders,
		})
	}
	for _, r := range o.RecentOrders {
		resp.RecentOrders = append(resp.RecentOrders, recentOrderResponse{
			ID:            r.ID,
			OrderNumber:   r.OrderNumber,
			CustomerName:  r.CustomerName,
			TotalAmount:   money(r.Total),
			Status:        r.Status,
			PaymentStatus: r.PaymentStatus,
			CreatedAt:     r.CreatedAt,
		})
	}
	return resp
}
