package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `id, product_id, product_name, quantity, requester, status, placed_at, updated_at`

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de pedidos. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(&o.ID, &o.ProductID, &o.ProductName, &o.Quantity, &o.Requester, &o.Status, &o.PlacedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserta el pedido confirmado. El ID se genera aquí y la fecha la pone la base.
func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	query := `
		INSERT INTO orders (id, product_id, product_name, quantity, requester, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + orderColumns
	o, err := scanOrder(r.q.QueryRow(ctx, query,
		uuid.New().String(), order.ProductID, order.ProductName, order.Quantity, order.Requester, entity.OrderStatusConfirmed,
	))
	if err != nil {
		if isCheckViolation(err) {
			return nil, domain.ErrInvalidInput
		}
		return nil, wrapErr("insert order", err)
	}
	return o, nil
}

// GetByID obtiene un pedido por ID.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, wrapErr("get order", err)
	}
	return o, nil
}

// List devuelve los pedidos del más reciente al más antiguo.
func (r *OrderRepo) List(ctx context.Context) ([]*entity.Order, error) {
	rows, err := r.q.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY placed_at DESC, id DESC`)
	if err != nil {
		return nil, wrapErr("list orders", err)
	}
	defer rows.Close()

	var list []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, wrapErr("scan order", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list orders", err)
	}
	return list, nil
}

// MarkCancelled pasa el pedido de confirmed a cancelled. El WHERE sobre status hace que
// de dos cancelaciones concurrentes solo una afecte la fila.
func (r *OrderRepo) MarkCancelled(ctx context.Context, id string) (*entity.Order, error) {
	query := `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING ` + orderColumns
	o, err := scanOrder(r.q.QueryRow(ctx, query, id, entity.OrderStatusCancelled, entity.OrderStatusConfirmed))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapErr("cancel order", err)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrAlreadyCancelled
}
