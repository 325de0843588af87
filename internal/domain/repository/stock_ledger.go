package repository

import (
	"context"

	"github.com/jhoicas/Inventario-live/internal/domain/entity"
)

// StockLedger es el puerto del almacén autoritativo de stock.
// Ambas operaciones son atómicas en la capa de almacenamiento: la verificación de stock
// y la escritura ocurren en la misma primitiva, nunca como leer-y-luego-escribir desde el caller.
type StockLedger interface {
	// TryDecrement resta quantity solo si AvailableStock >= quantity y devuelve el snapshot posterior.
	// Errores: domain.ErrProductNotFound, *domain.InsufficientStockError, domain.ErrTransient.
	TryDecrement(ctx context.Context, productID string, quantity int) (*entity.Product, error)
	// Increment suma quantity sin tope y devuelve el snapshot posterior.
	// Errores: domain.ErrProductNotFound, domain.ErrTransient.
	Increment(ctx context.Context, productID string, quantity int) (*entity.Product, error)
}
