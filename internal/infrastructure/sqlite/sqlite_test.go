package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/sqlite"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "inv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedProduct(t *testing.T, db *sqlite.DB, id string, stock int) {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Products().Create(context.Background(), &entity.Product{
		ID: id, Name: "Monitor", AvailableStock: stock, CreatedAt: now, UpdatedAt: now,
	}))
}

func TestSQLite_DecrementoYRechazo(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seedProduct(t, db, "p1", 8)

	p, err := db.Products().TryDecrement(ctx, "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, p.AvailableStock)
	assert.Equal(t, int64(2), p.Version)

	_, err = db.Products().TryDecrement(ctx, "p1", 4)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	available, _ := domain.AvailableStock(err)
	assert.Equal(t, 3, available)

	_, err = db.Products().TryDecrement(ctx, "nope", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestSQLite_ConcurrenciaNoSobrevende(t *testing.T) {
	db := openTestDB(t)
	seedProduct(t, db, "p1", 10)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.Products().TryDecrement(context.Background(), "p1", 1); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	p, err := db.Products().GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.AvailableStock)
}

func TestSQLite_TxRollback(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seedProduct(t, db, "p1", 4)
	boom := errors.New("boom")

	err := db.TxRunner().Run(ctx, func(l repository.StockLedger, o repository.OrderRepository) error {
		if _, err := l.TryDecrement(ctx, "p1", 2); err != nil {
			return err
		}
		if _, err := o.Create(ctx, &entity.Order{ProductID: "p1", ProductName: "Monitor", Quantity: 2, Requester: "ana"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := db.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, p.AvailableStock)
	list, err := db.Orders().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLite_PedidosOrdenYCancelacion(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	orders := db.Orders()

	first, err := orders.Create(ctx, &entity.Order{ProductID: "p1", ProductName: "Monitor", Quantity: 1, Requester: "ana"})
	require.NoError(t, err)
	second, err := orders.Create(ctx, &entity.Order{ProductID: "p1", ProductName: "Monitor", Quantity: 1, Requester: "luis"})
	require.NoError(t, err)

	list, err := orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = orders.MarkCancelled(ctx, first.ID)
	require.NoError(t, err)
	_, err = orders.MarkCancelled(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	_, err = orders.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestSQLite_ProductoDuplicadoYBorrado(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seedProduct(t, db, "p1", 1)

	err := db.Products().Create(ctx, &entity.Product{ID: "p1", Name: "x", CreatedAt: time.Now(), UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	name, stock := "Monitor 27", 9
	upd, err := db.Products().Update(ctx, "p1", repository.ProductPatch{Name: &name, AvailableStock: &stock, ExpectedVersion: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), upd.Version)
	assert.Equal(t, "Monitor 27", upd.Name)
	assert.Equal(t, 9, upd.AvailableStock)

	require.NoError(t, db.Products().Delete(ctx, "p1"))
	assert.ErrorIs(t, db.Products().Delete(ctx, "p1"), domain.ErrProductNotFound)
}

func TestSQLite_UpdateRenombraSinTocarStockYDetectaConflicto(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seedProduct(t, db, "p1", 5)

	_, err := db.Products().TryDecrement(ctx, "p1", 5)
	require.NoError(t, err)

	name := "Monitor Pro"
	upd, err := db.Products().Update(ctx, "p1", repository.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Monitor Pro", upd.Name)
	assert.Equal(t, 0, upd.AvailableStock)
	assert.Equal(t, int64(3), upd.Version)

	stock := 7
	_, err = db.Products().Update(ctx, "p1", repository.ProductPatch{AvailableStock: &stock, ExpectedVersion: 1})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	_, err = db.Products().Update(ctx, "nope", repository.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestSQLite_PingReflejaEstadoDeLaConexion(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "ping.db"))
	require.NoError(t, err)

	assert.NoError(t, db.Ping(ctx))

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(ctx), "con la base cerrada el health debe fallar")
}
