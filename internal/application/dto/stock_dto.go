package dto

import (
	"time"

	"github.com/jhoicas/Inventario-live/internal/domain/entity"
)

// StockUpdatedEvent nombre del evento que reciben los observadores del tópico inventory.
const StockUpdatedEvent = "stock-updated"

// StockChangeDTO forma serializada de entity.StockChangeEvent (websocket y relays entre instancias).
type StockChangeDTO struct {
	ProductID      string    `json:"productId"`
	ProductName    string    `json:"productName"`
	AvailableStock int       `json:"availableStock"`
	Version        int64     `json:"version"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewStockChangeDTO convierte el evento de dominio.
func NewStockChangeDTO(ev entity.StockChangeEvent) StockChangeDTO {
	return StockChangeDTO{
		ProductID:      ev.ProductID,
		ProductName:    ev.ProductName,
		AvailableStock: ev.AvailableStock,
		Version:        ev.Version,
		Timestamp:      ev.Timestamp,
	}
}

// ToEntity reconstruye el evento de dominio.
func (d StockChangeDTO) ToEntity() entity.StockChangeEvent {
	return entity.StockChangeEvent{
		ProductID:      d.ProductID,
		ProductName:    d.ProductName,
		AvailableStock: d.AvailableStock,
		Version:        d.Version,
		Timestamp:      d.Timestamp,
	}
}

// RealtimeFrame mensaje de websocket en ambos sentidos: {"event": "...", "data": {...}}.
type RealtimeFrame struct {
	Event string          `json:"event"`
	Data  *StockChangeDTO `json:"data,omitempty"`
}
