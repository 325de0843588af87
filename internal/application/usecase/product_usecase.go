package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Inventario-live/internal/application/dto"
	"github.com/jhoicas/Inventario-live/internal/application/inventory"
	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos (panel de administración).
// Los pedidos no pasan por aquí: el stock de un pedido solo se mueve con el ledger.
type ProductUseCase struct {
	repo     repository.ProductRepository
	notifier inventory.Notifier
	now      func() time.Time
}

// NewProductUseCase construye el caso de uso. notifier puede ser nil.
func NewProductUseCase(repo repository.ProductRepository, notifier inventory.Notifier) *ProductUseCase {
	return &ProductUseCase{repo: repo, notifier: notifier, now: time.Now}
}

// Create crea un nuevo producto con su stock inicial.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := normalizeName(in.Name)
	if name == "" || in.AvailableStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	product := &entity.Product{
		ID:             uuid.New().String(),
		Name:           name,
		AvailableStock: in.AvailableStock,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	uc.publish(ctx, product)
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista todos los productos.
func (uc *ProductUseCase) List(ctx context.Context) ([]dto.ProductResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *toProductResponse(p))
	}
	return out, nil
}

// Update actualiza nombre y/o stock. Renombrar no toca el stock. Fijar el stock desde administración
// es una escritura absoluta (el administrador declara el conteo físico) condicionada a la versión
// leída: si un pedido se confirmó entremedio devuelve domain.ErrVersionConflict y el conteo se revisa.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var patch repository.ProductPatch
	if in.Name != nil {
		name := normalizeName(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		patch.Name = &name
	}
	if in.AvailableStock != nil {
		if *in.AvailableStock < 0 {
			return nil, domain.ErrInvalidInput
		}
		current, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		patch.AvailableStock = in.AvailableStock
		patch.ExpectedVersion = current.Version
	}
	if patch.Name == nil && patch.AvailableStock == nil {
		return uc.GetByID(ctx, id)
	}

	product, err := uc.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, product)
	return toProductResponse(product), nil
}

// Delete elimina un producto. Los pedidos conservan el nombre copiado al confirmarse.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

func (uc *ProductUseCase) publish(ctx context.Context, p *entity.Product) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.Publish(context.WithoutCancel(ctx), entity.NewStockChangeEvent(p, uc.now()))
}

func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		AvailableStock: p.AvailableStock,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
