// Package storage elige el driver de almacenamiento según la configuración.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-live/internal/application/inventory"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/sqlite"
	"github.com/jhoicas/Inventario-live/pkg/config"
)

// Store repositorios y runner de un mismo driver.
type Store struct {
	Driver   string
	Products repository.ProductRepository
	Orders   repository.OrderRepository
	Tx       inventory.TxRunner
	Ping     func(ctx context.Context) error
	Close    func()
}

// Open abre el driver configurado (postgres, sqlite o memory).
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Store{
			Driver:   cfg.Store.Driver,
			Products: postgres.NewProductRepository(pool),
			Orders:   postgres.NewOrderRepository(pool),
			Tx:       postgres.NewTxRunner(pool),
			Ping:     pool.Ping,
			Close:    pool.Close,
		}, nil

	case config.StoreDriverSQLite:
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.Store.SQLitePath).Msg("sqlite listo")
		return &Store{
			Driver:   cfg.Store.Driver,
			Products: db.Products(),
			Orders:   db.Orders(),
			Tx:       db.TxRunner(),
			Ping:     db.Ping,
			Close: func() {
				if err := db.Close(); err != nil {
					log.Warn().Err(err).Msg("cerrar sqlite")
				}
			},
		}, nil

	case config.StoreDriverMemory:
		return OpenMemory(), nil
	}
	return nil, fmt.Errorf("storage: driver desconocido %q", cfg.Store.Driver)
}

// OpenMemory store en proceso, sin persistencia.
func OpenMemory() *Store {
	db := memory.NewDB()
	return &Store{
		Driver:   config.StoreDriverMemory,
		Products: memory.NewProductRepository(db),
		Orders:   memory.NewOrderRepository(db),
		Tx:       memory.NewTxRunner(db),
		Ping:     func(context.Context) error { return nil },
		Close:    func() {},
	}
}
