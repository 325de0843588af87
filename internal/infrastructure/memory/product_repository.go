package memory

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// productState es inmutable: cada mutación publica un estado nuevo con CompareAndSwap.
type productState struct {
	name      string
	stock     int
	version   int64
	createdAt time.Time
	updatedAt time.Time
	deleted   bool
}

// productCell contiene el estado vigente de un producto. El mapa de celdas solo se bloquea
// para buscar la celda; las mutaciones de stock son CAS por producto, sin lock global.
type productCell struct {
	id    string
	state atomic.Pointer[productState]
}

func (c *productCell) snapshot(st *productState) *entity.Product {
	return &entity.Product{
		ID:             c.id,
		Name:           st.name,
		AvailableStock: st.stock,
		Version:        st.version,
		CreatedAt:      st.createdAt,
		UpdatedAt:      st.updatedAt,
	}
}

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	db *DB
}

// NewProductRepository construye el adaptador sobre db.
func NewProductRepository(db *DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) cell(id string) (*productCell, bool) {
	r.db.productsMu.RLock()
	defer r.db.productsMu.RUnlock()
	c, ok := r.db.products[id]
	return c, ok
}

// TryDecrement resta quantity solo si hay stock suficiente en el instante del CAS.
func (r *ProductRepo) TryDecrement(ctx context.Context, productID string, quantity int) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("try decrement", err)
	}
	c, ok := r.cell(productID)
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	for {
		cur := c.state.Load()
		if cur.deleted {
			return nil, domain.ErrProductNotFound
		}
		if cur.stock < quantity {
			return nil, &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: cur.stock}
		}
		next := *cur
		next.stock -= quantity
		next.version++
		next.updatedAt = r.db.now()
		if c.state.CompareAndSwap(cur, &next) {
			return c.snapshot(&next), nil
		}
	}
}

// Increment suma quantity sin tope.
func (r *ProductRepo) Increment(ctx context.Context, productID string, quantity int) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("increment", err)
	}
	c, ok := r.cell(productID)
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	for {
		cur := c.state.Load()
		if cur.deleted {
			return nil, domain.ErrProductNotFound
		}
		next := *cur
		next.stock += quantity
		next.version++
		next.updatedAt = r.db.now()
		if c.state.CompareAndSwap(cur, &next) {
			return c.snapshot(&next), nil
		}
	}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return domain.Transient("create product", err)
	}
	if product.AvailableStock < 0 {
		return domain.ErrInvalidInput
	}
	r.db.productsMu.Lock()
	defer r.db.productsMu.Unlock()
	if existing, ok := r.db.products[product.ID]; ok && !existing.state.Load().deleted {
		return domain.ErrDuplicate
	}
	if product.Version == 0 {
		product.Version = 1
	}
	c := &productCell{id: product.ID}
	c.state.Store(&productState{
		name:      product.Name,
		stock:     product.AvailableStock,
		version:   product.Version,
		createdAt: product.CreatedAt,
		updatedAt: product.UpdatedAt,
	})
	r.db.products[product.ID] = c
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("get product", err)
	}
	c, ok := r.cell(id)
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	st := c.state.Load()
	if st.deleted {
		return nil, domain.ErrProductNotFound
	}
	return c.snapshot(st), nil
}

// List devuelve los productos por fecha de creación.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("list products", err)
	}
	r.db.productsMu.RLock()
	list := make([]*entity.Product, 0, len(r.db.products))
	for _, c := range r.db.products {
		if st := c.state.Load(); !st.deleted {
			list = append(list, c.snapshot(st))
		}
	}
	r.db.productsMu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// Update aplica el patch con CAS. Sin AvailableStock solo cambia el nombre; con él, la CAS
// exige que la versión leída por el caller siga vigente.
func (r *ProductRepo) Update(ctx context.Context, id string, patch repository.ProductPatch) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("update product", err)
	}
	if patch.AvailableStock != nil && *patch.AvailableStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	c, ok := r.cell(id)
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	for {
		cur := c.state.Load()
		if cur.deleted {
			return nil, domain.ErrProductNotFound
		}
		next := *cur
		if patch.Name != nil {
			next.name = *patch.Name
		}
		if patch.AvailableStock != nil {
			if cur.version != patch.ExpectedVersion {
				return nil, domain.ErrVersionConflict
			}
			next.stock = *patch.AvailableStock
		}
		next.version++
		next.updatedAt = r.db.now()
		if c.state.CompareAndSwap(cur, &next) {
			return c.snapshot(&next), nil
		}
	}
}

// Delete elimina un producto. Las operaciones en curso que ya tenían la celda ven el tombstone.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return domain.Transient("delete product", err)
	}
	r.db.productsMu.Lock()
	defer r.db.productsMu.Unlock()
	c, ok := r.db.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	for {
		cur := c.state.Load()
		if cur.deleted {
			return domain.ErrProductNotFound
		}
		next := *cur
		next.deleted = true
		if c.state.CompareAndSwap(cur, &next) {
			break
		}
	}
	delete(r.db.products, id)
	return nil
}
