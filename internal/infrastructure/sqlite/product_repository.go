package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, name, available_stock, version, created_at, updated_at`

// ProductRepo implementación de ProductRepository y StockLedger sobre SQLite.
type ProductRepo struct {
	q querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var (
		p                    entity.Product
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.AvailableStock, &p.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// TryDecrement UPDATE condicional con RETURNING; sin filas, se distingue inexistente de insuficiente.
func (r *ProductRepo) TryDecrement(ctx context.Context, productID string, quantity int) (*entity.Product, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	const q = `
		UPDATE products
		SET available_stock = available_stock - ?, version = version + 1, updated_at = ?
		WHERE id = ? AND available_stock >= ?
		RETURNING ` + productColumns

	var available int
	for attempt := 0; attempt < 3; attempt++ {
		p, err := scanProduct(r.q.QueryRowContext(ctx, q, quantity, formatTime(time.Now()), productID, quantity))
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, wrapErr("try decrement", err)
		}
		err = r.q.QueryRowContext(ctx, `SELECT available_stock FROM products WHERE id = ?`, productID).Scan(&available)
		if errors.Is(err, sql.ErrNoRows) {
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

// Increment suma quantity al stock.
func (r *ProductRepo) Increment(ctx context.Context, productID string, quantity int) (*entity.Product, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	const q = `
		UPDATE products
		SET available_stock = available_stock + ?, version = version + 1, updated_at = ?
		WHERE id = ?
		RETURNING ` + productColumns
	p, err := scanProduct(r.q.QueryRowContext(ctx, q, quantity, formatTime(time.Now()), productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, wrapErr("increment stock", err)
	}
	return p, nil
}

// Create inserta un producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	if product.Version == 0 {
		product.Version = 1
	}
	const q = `
		INSERT INTO products (id, name, available_stock, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.q.ExecContext(ctx, q,
		product.ID, product.Name, product.AvailableStock, product.Version,
		formatTime(product.CreatedAt), formatTime(product.UpdatedAt),
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return domain.ErrDuplicate
	case isCheckViolation(err):
		return domain.ErrInvalidInput
	}
	return wrapErr("insert product", err)
}

// GetByID obtiene un producto.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, wrapErr("get product", err)
	}
	return p, nil
}

// List productos por fecha de creación.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, wrapErr("list products", err)
	}
	defer rows.Close()

	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrapErr("scan product", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list products", err)
	}
	return list, nil
}

// Update aplica el patch; con stock, solo si la versión no cambió desde la lectura.
func (r *ProductRepo) Update(ctx context.Context, id string, patch repository.ProductPatch) (*entity.Product, error) {
	const q = `
		UPDATE products
		SET name = COALESCE(?1, name),
		    available_stock = COALESCE(?2, available_stock),
		    version = version + 1,
		    updated_at = ?3
		WHERE id = ?4 AND (?2 IS NULL OR version = ?5)
		RETURNING ` + productColumns
	p, err := scanProduct(r.q.QueryRowContext(ctx, q,
		patch.Name, patch.AvailableStock, formatTime(time.Now()), id, patch.ExpectedVersion,
	))
	if err == nil {
		return p, nil
	}
	switch {
	case isCheckViolation(err):
		return nil, domain.ErrInvalidInput
	case !errors.Is(err, sql.ErrNoRows):
		return nil, wrapErr("update product", err)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrVersionConflict
}

// Delete elimina un producto.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return wrapErr("delete product", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
