package entity

import "time"

// StockChangeEvent notificación transitoria emitida tras cada mutación de stock confirmada.
type StockChangeEvent struct {
	ProductID      string
	ProductName    string
	AvailableStock int
	Version        int64
	Timestamp      time.Time
}

// NewStockChangeEvent construye el evento a partir del snapshot posterior a la mutación.
func NewStockChangeEvent(p *Product, at time.Time) StockChangeEvent {
	return StockChangeEvent{
		ProductID:      p.ID,
		ProductName:    p.Name,
		AvailableStock: p.AvailableStock,
		Version:        p.Version,
		Timestamp:      at,
	}
}
