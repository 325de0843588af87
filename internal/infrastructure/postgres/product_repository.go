package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, name, available_stock, version, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.Name, &p.AvailableStock, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	if product.Version == 0 {
		product.Version = 1
	}
	query := `
		INSERT INTO products (id, name, available_stock, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.AvailableStock, product.Version, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isCheckViolation(err):
			return domain.ErrInvalidInput
		}
		return wrapErr("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, wrapErr("get product", err)
	}
	return p, nil
}

// List lista los productos por fecha de creación.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
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

// Update aplica el patch. COALESCE deja intactas las columnas nil; la guarda de versión
// solo se evalúa cuando se fija el stock, así un renombrado nunca pisa un pedido concurrente.
func (r *ProductRepo) Update(ctx context.Context, id string, patch repository.ProductPatch) (*entity.Product, error) {
	query := `
		UPDATE products
		SET name = COALESCE($2, name),
		    available_stock = COALESCE($3::integer, available_stock),
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND ($3::integer IS NULL OR version = $4)
		RETURNING ` + productColumns
	p, err := scanProduct(r.q.QueryRow(ctx, query, id, patch.Name, patch.AvailableStock, patch.ExpectedVersion))
	if err == nil {
		return p, nil
	}
	switch {
	case isCheckViolation(err):
		return nil, domain.ErrInvalidInput
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, wrapErr("update product", err)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrVersionConflict
}

// Delete elimina un producto. Los pedidos existentes conservan product_id y product_name.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
