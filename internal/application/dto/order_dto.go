package dto

import (
	"time"

	"github.com/jhoicas/Inventario-live/internal/domain/entity"
)

// PlaceOrderRequest body para POST /api/orders.
// Quantity es entero: un valor fraccionario falla al decodificar el body.
type PlaceOrderRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	StaffName string `json:"staffName"`
}

// PlaceOrderResponse datos devueltos al confirmar un pedido.
type PlaceOrderResponse struct {
	OrderID        string `json:"orderId"`
	ProductName    string `json:"productName"`
	Quantity       int    `json:"quantity"`
	AvailableStock int    `json:"availableStock"`
}

// CancelOrderResponse datos devueltos al cancelar un pedido.
type CancelOrderResponse struct {
	OrderID        string `json:"orderId"`
	AvailableStock int    `json:"availableStock"`
}

// OrderResponse representación de un pedido.
type OrderResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	StaffName   string    `json:"staffName"`
	Status      string    `json:"status"`
	OrderedAt   time.Time `json:"orderedAt"`
}

// NewOrderResponse convierte la entidad a su representación HTTP.
func NewOrderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		ProductID:   o.ProductID,
		ProductName: o.ProductName,
		Quantity:    o.Quantity,
		StaffName:   o.Requester,
		Status:      o.Status,
		OrderedAt:   o.PlacedAt,
	}
}

// NewOrderListResponse convierte una lista de pedidos.
func NewOrderListResponse(list []*entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, NewOrderResponse(o))
	}
	return out
}
