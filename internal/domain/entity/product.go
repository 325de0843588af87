package entity

import "time"

// Product representa un producto del inventario compartido.
// AvailableStock nunca es negativo; solo lo modifican las operaciones atómicas del ledger
// (o la administración de productos). Version aumenta con cada mutación de stock.
type Product struct {
	ID             string
	Name           string
	AvailableStock int
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
