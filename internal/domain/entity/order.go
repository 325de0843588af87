package entity

import "time"

// Estados válidos de Order. cancelled es terminal.
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// Order representa un pedido de stock hecho por un miembro del personal.
// ProductName se copia al confirmar y no cambia aunque el producto se renombre o elimine.
type Order struct {
	ID          string
	ProductID   string
	ProductName string
	Quantity    int
	Requester   string
	Status      string
	PlacedAt    time.Time
	UpdatedAt   time.Time
}

// IsCancelled indica si el pedido ya está en estado terminal.
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}
