package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/postgres"
)

// Tests de integración: requieren TEST_DATABASE_URL apuntando a una base desechable.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

func newProduct(t *testing.T, repo *postgres.ProductRepo, stock int) string {
	t.Helper()
	id := uuid.New().String()
	now := time.Now()
	require.NoError(t, repo.Create(context.Background(), &entity.Product{
		ID: id, Name: "Laptop", AvailableStock: stock, CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

func TestPostgres_DecrementoConcurrenteNoSobrevende(t *testing.T) {
	pool := testPool(t)
	repo := postgres.NewProductRepository(pool)
	id := newProduct(t, repo, 5)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.TryDecrement(context.Background(), id, 1); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), ok.Load())
	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, p.AvailableStock)
}

func TestPostgres_StockInsuficienteReportaDisponible(t *testing.T) {
	pool := testPool(t)
	repo := postgres.NewProductRepository(pool)
	id := newProduct(t, repo, 2)

	_, err := repo.TryDecrement(context.Background(), id, 3)
	available, ok := domain.AvailableStock(err)
	require.True(t, ok)
	assert.Equal(t, 2, available)

	_, err = repo.TryDecrement(context.Background(), uuid.New().String(), 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestPostgres_TxRollbackNoDejaPedidoNiStock(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := postgres.NewProductRepository(pool)
	id := newProduct(t, repo, 4)
	boom := errors.New("boom")

	err := postgres.NewTxRunner(pool).Run(ctx, func(l repository.StockLedger, o repository.OrderRepository) error {
		if _, err := l.TryDecrement(ctx, id, 2); err != nil {
			return err
		}
		if _, err := o.Create(ctx, &entity.Order{ProductID: id, ProductName: "Laptop", Quantity: 2, Requester: "ana"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, p.AvailableStock)
}

func TestPostgres_CancelacionCondicional(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	orders := postgres.NewOrderRepository(pool)

	o, err := orders.Create(ctx, &entity.Order{ProductID: "p", ProductName: "Laptop", Quantity: 1, Requester: "ana"})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, o.Status)

	_, err = orders.MarkCancelled(ctx, o.ID)
	require.NoError(t, err)
	_, err = orders.MarkCancelled(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	_, err = orders.MarkCancelled(ctx, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestPostgres_UpdateRenombraSinTocarStockYDetectaConflicto(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	repo := postgres.NewProductRepository(pool)
	id := newProduct(t, repo, 5)

	_, err := repo.TryDecrement(ctx, id, 5)
	require.NoError(t, err)

	name := "Laptop Pro"
	upd, err := repo.Update(ctx, id, repository.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Laptop Pro", upd.Name)
	assert.Equal(t, 0, upd.AvailableStock)
	assert.Equal(t, int64(3), upd.Version)

	stock := 9
	_, err = repo.Update(ctx, id, repository.ProductPatch{AvailableStock: &stock, ExpectedVersion: 1})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	upd, err = repo.Update(ctx, id, repository.ProductPatch{AvailableStock: &stock, ExpectedVersion: 3})
	require.NoError(t, err)
	assert.Equal(t, 9, upd.AvailableStock)

	_, err = repo.Update(ctx, uuid.New().String(), repository.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
