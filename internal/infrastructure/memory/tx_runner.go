package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/Inventario-live/internal/application/inventory"
	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner simula una transacción con un journal de compensaciones: cada mutación exitosa
// registra su inversa y, si fn falla, se aplican en orden inverso. Las mutaciones son visibles
// para otras goroutines antes del "commit"; si una compensación falla el resultado es
// *domain.PartialFailureError.
type TxRunner struct {
	products *ProductRepo
	orders   *OrderRepo
}

// NewTxRunner construye el runner sobre db.
func NewTxRunner(db *DB) *TxRunner {
	return &TxRunner{products: NewProductRepository(db), orders: NewOrderRepository(db)}
}

// Run ejecuta fn con repos que registran sus compensaciones.
func (r *TxRunner) Run(ctx context.Context, fn func(ledger repository.StockLedger, orders repository.OrderRepository) error) error {
	if err := ctx.Err(); err != nil {
		return domain.Transient("begin tx", err)
	}
	j := &journal{}
	err := fn(&txLedger{inner: r.products, j: j}, &txOrders{inner: r.orders, j: j})
	if err == nil {
		return nil
	}
	if cerr := j.rollback(); cerr != nil {
		return &domain.PartialFailureError{Op: "memory tx", Cause: err, Compensation: cerr}
	}
	return err
}

type journal struct {
	undo []func() error
}

func (j *journal) push(fn func() error) { j.undo = append(j.undo, fn) }

func (j *journal) rollback() error {
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	j.undo = nil
	return errors.Join(errs...)
}

// Las compensaciones no heredan el ctx del request: el caso típico de rollback es justo un timeout.

type txLedger struct {
	inner *ProductRepo
	j     *journal
}

func (l *txLedger) TryDecrement(ctx context.Context, productID string, quantity int) (*entity.Product, error) {
	p, err := l.inner.TryDecrement(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	l.j.push(func() error {
		if _, err := l.inner.Increment(context.Background(), productID, quantity); err != nil {
			return fmt.Errorf("restaurar %d unidades de %s: %w", quantity, productID, err)
		}
		return nil
	})
	return p, nil
}

func (l *txLedger) Increment(ctx context.Context, productID string, quantity int) (*entity.Product, error) {
	p, err := l.inner.Increment(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	l.j.push(func() error {
		if _, err := l.inner.TryDecrement(context.Background(), productID, quantity); err != nil {
			return fmt.Errorf("retirar %d unidades de %s: %w", quantity, productID, err)
		}
		return nil
	})
	return p, nil
}

type txOrders struct {
	inner *OrderRepo
	j     *journal
}

func (o *txOrders) Create(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	created, err := o.inner.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	o.j.push(func() error {
		o.inner.remove(created.ID)
		return nil
	})
	return created, nil
}

func (o *txOrders) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return o.inner.GetByID(ctx, id)
}

func (o *txOrders) List(ctx context.Context) ([]*entity.Order, error) {
	return o.inner.List(ctx)
}

func (o *txOrders) MarkCancelled(ctx context.Context, id string) (*entity.Order, error) {
	cancelled, err := o.inner.MarkCancelled(ctx, id)
	if err != nil {
		return nil, err
	}
	o.j.push(func() error { return o.inner.reopen(id) })
	return cancelled, nil
}
