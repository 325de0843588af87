package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando el ledger y el store de pedidos
// atados a esa transacción. Garantiza que la mutación de stock y el registro del pedido se confirman
// juntos o no se confirman. Si el rollback/compensación también falla, devuelve *domain.PartialFailureError.
type TxRunner interface {
	Run(ctx context.Context, fn func(ledger repository.StockLedger, orders repository.OrderRepository) error) error
}

// Notifier recibe los eventos de stock tras cada mutación confirmada.
// Publish no bloquea ni falla desde el punto de vista del servicio: la entrega es best-effort.
type Notifier interface {
	Publish(ctx context.Context, event entity.StockChangeEvent)
}

// NotifierFunc adapta una función al contrato Notifier.
type NotifierFunc func(ctx context.Context, event entity.StockChangeEvent)

// Publish implementa Notifier.
func (f NotifierFunc) Publish(ctx context.Context, event entity.StockChangeEvent) { f(ctx, event) }
