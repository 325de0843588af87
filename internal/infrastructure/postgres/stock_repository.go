package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

var _ repository.StockLedger = (*ProductRepo)(nil)

// maxDecrementAttempts acota los reintentos cuando el stock observado tras un UPDATE fallido
// ya alcanza (otra transacción lo repuso entre ambas sentencias).
const maxDecrementAttempts = 3

// TryDecrement resta quantity con un UPDATE condicional. La comprobación y la resta ocurren
// en la misma sentencia bajo el lock de fila, así que dos pedidos concurrentes nunca ven el mismo stock.
func (r *ProductRepo) TryDecrement(ctx context.Context, productID string, quantity int) (*entity.Product, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	query := `
		UPDATE products
		SET available_stock = available_stock - $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND available_stock >= $2
		RETURNING ` + productColumns

	var available int
	for attempt := 0; attempt < maxDecrementAttempts; attempt++ {
		p, err := scanProduct(r.q.QueryRow(ctx, query, productID, quantity))
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, wrapErr("try decrement", err)
		}
		err = r.q.QueryRow(ctx, `SELECT available_stock FROM products WHERE id = $1`, productID).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		if err != nil {
			return nil, wrapErr("read stock", err)
		}
		if available < quantity {
			break
		}
	}
	return nil, &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
}

// Increment suma quantity al stock disponible.
func (r *ProductRepo) Increment(ctx context.Context, productID string, quantity int) (*entity.Product, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	query := `
		UPDATE products
		SET available_stock = available_stock + $2, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns
	p, err := scanProduct(r.q.QueryRow(ctx, query, productID, quantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, wrapErr("increment stock", err)
	}
	return p, nil
}
