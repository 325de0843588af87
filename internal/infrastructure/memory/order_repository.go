package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

type orderRecord struct {
	order entity.Order
	seq   uint64 // desempate de PlacedAt iguales
}

// OrderRepo implementación en memoria de OrderRepository.
type OrderRepo struct {
	db *DB
}

// NewOrderRepository construye el adaptador sobre db.
func NewOrderRepository(db *DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create inserta el pedido confirmado asignando ID y fecha.
func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("create order", err)
	}
	if order.Quantity < 1 {
		return nil, domain.ErrInvalidInput
	}
	now := r.db.now()
	o := *order
	o.ID = uuid.New().String()
	o.Status = entity.OrderStatusConfirmed
	o.PlacedAt = now
	o.UpdatedAt = now

	r.db.ordersMu.Lock()
	r.db.orderSeq++
	r.db.orders[o.ID] = &orderRecord{order: o, seq: r.db.orderSeq}
	r.db.ordersMu.Unlock()

	out := o
	return &out, nil
}

// GetByID obtiene un pedido por ID.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("get order", err)
	}
	r.db.ordersMu.RLock()
	defer r.db.ordersMu.RUnlock()
	rec, ok := r.db.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := rec.order
	return &out, nil
}

// List devuelve los pedidos del más reciente al más antiguo.
func (r *OrderRepo) List(ctx context.Context) ([]*entity.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("list orders", err)
	}
	r.db.ordersMu.RLock()
	recs := make([]*orderRecord, 0, len(r.db.orders))
	for _, rec := range r.db.orders {
		recs = append(recs, rec)
	}
	r.db.ordersMu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.order.PlacedAt.Equal(b.order.PlacedAt) {
			return a.seq > b.seq
		}
		return a.order.PlacedAt.After(b.order.PlacedAt)
	})
	list := make([]*entity.Order, 0, len(recs))
	for _, rec := range recs {
		o := rec.order
		list = append(list, &o)
	}
	return list, nil
}

// MarkCancelled pasa confirmed -> cancelled bajo el lock del store.
func (r *OrderRepo) MarkCancelled(ctx context.Context, id string) (*entity.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("cancel order", err)
	}
	r.db.ordersMu.Lock()
	defer r.db.ordersMu.Unlock()
	rec, ok := r.db.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if rec.order.IsCancelled() {
		return nil, domain.ErrAlreadyCancelled
	}
	rec.order.Status = entity.OrderStatusCancelled
	rec.order.UpdatedAt = r.db.now()
	out := rec.order
	return &out, nil
}

// remove deshace un Create dentro de una transacción fallida.
func (r *OrderRepo) remove(id string) {
	r.db.ordersMu.Lock()
	delete(r.db.orders, id)
	r.db.ordersMu.Unlock()
}

// reopen deshace un MarkCancelled dentro de una transacción fallida.
func (r *OrderRepo) reopen(id string) error {
	r.db.ordersMu.Lock()
	defer r.db.ordersMu.Unlock()
	rec, ok := r.db.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	rec.order.Status = entity.OrderStatusConfirmed
	rec.order.UpdatedAt = r.db.now()
	return nil
}
