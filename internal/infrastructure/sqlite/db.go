// Package sqlite implementa el ledger y los pedidos sobre SQLite embebido (modernc, sin CGO).
//
// Hay una sola conexión: las escrituras quedan serializadas por el propio pool de database/sql,
// y dentro de una transacción los repos deben usar la tx y nunca el *sql.DB.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id              TEXT    PRIMARY KEY,
    name            TEXT    NOT NULL,
    available_stock INTEGER NOT NULL CHECK (available_stock >= 0),
    version         INTEGER NOT NULL DEFAULT 1,
    created_at      TEXT    NOT NULL,
    updated_at      TEXT    NOT NULL
);

-- Sin FK a products: los pedidos sobreviven al borrado del producto.
CREATE TABLE IF NOT EXISTS orders (
    id           TEXT    PRIMARY KEY,
    product_id   TEXT    NOT NULL,
    product_name TEXT    NOT NULL,
    quantity     INTEGER NOT NULL CHECK (quantity >= 1),
    requester    TEXT    NOT NULL,
    status       TEXT    NOT NULL CHECK (status IN ('confirmed', 'cancelled')),
    placed_at    TEXT    NOT NULL,
    updated_at   TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_placed_at ON orders(placed_at DESC);
`

// querier es lo común entre *sql.DB y *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB base SQLite abierta con WAL y el esquema aplicado.
type DB struct {
	db *sql.DB
}

// Open abre (o crea) la base en path. ":memory:" no sirve con varias conexiones, pero aquí hay una sola.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: crear directorio %q: %w", dir, err)
			}
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close libera la conexión.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping verifica que el archivo siga accesible (health).
func (d *DB) Ping(ctx context.Context) error {
	return wrapErr("ping", d.db.PingContext(ctx))
}

// Products repositorio de productos fuera de transacción.
func (d *DB) Products() *ProductRepo { return &ProductRepo{q: d.db} }

// Orders repositorio de pedidos fuera de transacción.
func (d *DB) Orders() *OrderRepo { return &OrderRepo{q: d.db} }

// TxRunner runner de transacciones sobre esta base.
func (d *DB) TxRunner() *TxRunner { return &TxRunner{db: d.db} }
