package postgres

import (
	"context"
	"fmt"
)

// La tabla orders no tiene FK a products: un producto puede borrarse y sus pedidos siguen
// legibles con el nombre copiado al confirmar.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		available_stock INTEGER NOT NULL CHECK (available_stock >= 0),
		version         BIGINT NOT NULL DEFAULT 1,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		product_id   TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity     INTEGER NOT NULL CHECK (quantity >= 1),
		requester    TEXT NOT NULL,
		status       TEXT NOT NULL CHECK (status IN ('confirmed', 'cancelled')),
		placed_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_placed_at ON orders (placed_at DESC)`,
}

// Migrate crea las tablas si no existen. Es idempotente.
func Migrate(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
