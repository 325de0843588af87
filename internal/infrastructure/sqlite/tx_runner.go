package sqlite

import (
	"context"
	"database/sql"

	"github.com/jhoicas/Inventario-live/internal/application/inventory"
	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción SQLite.
type TxRunner struct {
	db *sql.DB
}

// Run abre la transacción, pasa repos atados a ella y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(ledger repository.StockLedger, orders repository.OrderRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&ProductRepo{q: tx}, &OrderRepo{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.Transient("sqlite: commit transaction", err)
	}
	return nil
}
