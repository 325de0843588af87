package repository

import (
	"context"

	"github.com/jhoicas/Inventario-live/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para Order.
type OrderRepository interface {
	// Create inserta el pedido en estado confirmed; el store asigna ID y PlacedAt.
	Create(ctx context.Context, order *entity.Order) (*entity.Order, error)
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// List devuelve los pedidos ordenados por PlacedAt descendente.
	List(ctx context.Context) ([]*entity.Order, error)
	// MarkCancelled pasa confirmed -> cancelled. domain.ErrAlreadyCancelled si ya lo estaba.
	MarkCancelled(ctx context.Context, id string) (*entity.Order, error)
}
