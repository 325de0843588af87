package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func seed(t *testing.T, repo *memory.ProductRepo, id, name string, stock int) {
	t.Helper()
	now := time.Now()
	require.NoError(t, repo.Create(context.Background(), &entity.Product{
		ID: id, Name: name, AvailableStock: stock, CreatedAt: now, UpdatedAt: now,
	}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────────────────────────────────

func TestTryDecrement_RestaYSubeVersion(t *testing.T) {
	repo := memory.NewProductRepository(memory.NewDB())
	seed(t, repo, "p1", "Laptop", 10)

	p, err := repo.TryDecrement(context.Background(), "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 7, p.AvailableStock)
	assert.Equal(t, int64(2), p.Version)
	assert.Equal(t, "Laptop", p.Name)
}

func TestTryDecrement_StockInsuficienteNoMuta(t *testing.T) {
	repo := memory.NewProductRepository(memory.NewDB())
	seed(t, repo, "p1", "Mouse", 2)

	_, err := repo.TryDecrement(context.Background(), "p1", 3)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	available, ok := domain.AvailableStock(err)
	require.True(t, ok)
	assert.Equal(t, 2, available)

	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.AvailableStock)
	assert.Equal(t, int64(1), p.Version)
}

func TestTryDecrement_ProductoInexistente(t *testing.T) {
	repo := memory.NewProductRepository(memory.NewDB())
	_, err := repo.TryDecrement(context.Background(), "nope", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestTryDecrement_ContextoCanceladoEsTransitorio(t *testing.T) {
	repo := memory.NewProductRepository(memory.NewDB())
	seed(t, repo, "p1", "Mouse", 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.TryDecrement(ctx, "p1", 1)
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestTryDecrement_ConcurrenteNoSobrevende(t *testing.T) {
	repo := memory.NewProductRepository(memory.NewDB())
	seed(t, repo, "p1", "Laptop", 10)

	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.TryDecrement(context.Background(), "p1", 1)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(40), rejected.Load())
	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.AvailableStock)
	assert.Equal(t, int64(11), p.Version)
}

// ──────────────────────────────────────────────────────────────────────────────
// CRUD de productos
// ──────────────────────────────────────────────────────────────────────────────

func TestProductCRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository(memory.NewDB())
	seed(t, repo, "p1", "Laptop", 10)
	seed(t, repo, "p2", "Mouse", 25)

	err := repo.Create(ctx, &entity.Product{ID: "p1", Name: "Otra"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	stock := 4
	upd, err := repo.Update(ctx, "p1", repository.ProductPatch{AvailableStock: &stock, ExpectedVersion: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), upd.Version)
	assert.Equal(t, 4, upd.AvailableStock)

	require.NoError(t, repo.Delete(ctx, "p2"))
	_, err = repo.GetByID(ctx, "p2")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "p2"), domain.ErrProductNotFound)
}

func TestProductUpdate_RenombrarNoTocaStock(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository(memory.NewDB())
	seed(t, repo, "p1", "Laptop", 5)

	_, err := repo.TryDecrement(ctx, "p1", 5)
	require.NoError(t, err)

	name := "Laptop Pro"
	upd, err := repo.Update(ctx, "p1", repository.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Laptop Pro", upd.Name)
	assert.Equal(t, 0, upd.AvailableStock, "el renombrado no devuelve unidades vendidas")
	assert.Equal(t, int64(3), upd.Version)
}

func TestProductUpdate_StockConVersionViejaEsConflicto(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository(memory.NewDB())
	seed(t, repo, "p1", "Laptop", 5)

	_, err := repo.TryDecrement(ctx, "p1", 2)
	require.NoError(t, err)

	stock := 10
	_, err = repo.Update(ctx, "p1", repository.ProductPatch{AvailableStock: &stock, ExpectedVersion: 1})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.AvailableStock)

	_, err = repo.Update(ctx, "nope", repository.ProductPatch{AvailableStock: &stock})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pedidos
// ──────────────────────────────────────────────────────────────────────────────

func TestOrders_CreateListCancel(t *testing.T) {
	ctx := context.Background()
	orders := memory.NewOrderRepository(memory.NewDB())

	first, err := orders.Create(ctx, &entity.Order{ProductID: "p1", ProductName: "Laptop", Quantity: 1, Requester: "ana"})
	require.NoError(t, err)
	second, err := orders.Create(ctx, &entity.Order{ProductID: "p1", ProductName: "Laptop", Quantity: 2, Requester: "luis"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, entity.OrderStatusConfirmed, first.Status)

	list, err := orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "el más reciente primero")

	cancelled, err := orders.MarkCancelled(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.IsCancelled())

	_, err = orders.MarkCancelled(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	_, err = orders.MarkCancelled(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// TxRunner
// ──────────────────────────────────────────────────────────────────────────────

func TestTxRunner_RollbackRestauraStockYPedido(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	products := memory.NewProductRepository(db)
	orders := memory.NewOrderRepository(db)
	seed(t, products, "p1", "Laptop", 5)
	boom := errors.New("boom")

	err := memory.NewTxRunner(db).Run(ctx, func(l repository.StockLedger, o repository.OrderRepository) error {
		if _, err := l.TryDecrement(ctx, "p1", 2); err != nil {
			return err
		}
		if _, err := o.Create(ctx, &entity.Order{ProductID: "p1", Quantity: 2, Requester: "ana"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := products.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.AvailableStock)
	list, err := orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTxRunner_CompensacionFallidaEsFalloParcial(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	products := memory.NewProductRepository(db)
	seed(t, products, "p1", "Laptop", 5)
	boom := errors.New("boom")

	err := memory.NewTxRunner(db).Run(ctx, func(l repository.StockLedger, _ repository.OrderRepository) error {
		if _, err := l.TryDecrement(ctx, "p1", 2); err != nil {
			return err
		}
		// El producto desaparece antes de poder devolver el stock.
		require.NoError(t, products.Delete(ctx, "p1"))
		return boom
	})
	require.ErrorIs(t, err, domain.ErrPartialFailure)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestTxRunner_RollbackDeCancelacion(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	products := memory.NewProductRepository(db)
	orders := memory.NewOrderRepository(db)
	seed(t, products, "p1", "Laptop", 5)
	o, err := orders.Create(ctx, &entity.Order{ProductID: "p1", Quantity: 1, Requester: "ana"})
	require.NoError(t, err)
	boom := errors.New("boom")

	err = memory.NewTxRunner(db).Run(ctx, func(l repository.StockLedger, txo repository.OrderRepository) error {
		if _, err := txo.MarkCancelled(ctx, o.ID); err != nil {
			return err
		}
		if _, err := l.Increment(ctx, "p1", 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, got.Status)
	p, err := products.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.AvailableStock)
}
