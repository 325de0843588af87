package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `id, product_id, product_name, quantity, requester, status, placed_at, updated_at`

// OrderRepo implementación de OrderRepository sobre SQLite.
type OrderRepo struct {
	q querier
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		o                   entity.Order
		placedAt, updatedAt string
	)
	err := row.Scan(&o.ID, &o.ProductID, &o.ProductName, &o.Quantity, &o.Requester, &o.Status, &placedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if o.PlacedAt, err = parseRFC3339(placedAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserta el pedido confirmado.
func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	const q = `
		INSERT INTO orders (id, product_id, product_name, quantity, requester, status, placed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + orderColumns
	now := formatTime(time.Now())
	o, err := scanOrder(r.q.QueryRowContext(ctx, q,
		uuid.New().String(), order.ProductID, order.ProductName, order.Quantity, order.Requester,
		entity.OrderStatusConfirmed, now, now,
	))
	if err != nil {
		if isCheckViolation(err) {
			return nil, domain.ErrInvalidInput
		}
		return nil, wrapErr("insert order", err)
	}
	return o, nil
}

// GetByID obtiene un pedido.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, wrapErr("get order", err)
	}
	return o, nil
}

// List pedidos del más reciente al más antiguo.
func (r *OrderRepo) List(ctx context.Context) ([]*entity.Order, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY placed_at DESC, rowid DESC`)
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

// MarkCancelled confirmed -> cancelled de forma condicional.
func (r *OrderRepo) MarkCancelled(ctx context.Context, id string) (*entity.Order, error) {
	const q = `
		UPDATE orders SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
		RETURNING ` + orderColumns
	o, err := scanOrder(r.q.QueryRowContext(ctx, q,
		entity.OrderStatusCancelled, formatTime(time.Now()), id, entity.OrderStatusConfirmed,
	))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapErr("cancel order", err)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrAlreadyCancelled
}
