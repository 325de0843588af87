package repository

import (
	"context"

	"github.com/jhoicas/Inventario-live/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Incluye el ledger de stock y el CRUD administrativo.
type ProductRepository interface {
	StockLedger
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context) ([]*entity.Product, error)
	// Update aplica patch, incrementa Version y devuelve el snapshot resultante.
	// Errores: domain.ErrProductNotFound, domain.ErrVersionConflict (solo con AvailableStock).
	Update(ctx context.Context, id string, patch ProductPatch) (*entity.Product, error)
	Delete(ctx context.Context, id string) error
}

// ProductPatch cambios administrativos. Un campo nil no se toca: renombrar nunca reescribe el stock.
// Fijar AvailableStock es una escritura absoluta y solo aplica si la versión sigue siendo
// ExpectedVersion; si un pedido se confirmó entremedio el resultado es domain.ErrVersionConflict.
type ProductPatch struct {
	Name            *string
	AvailableStock  *int
	ExpectedVersion int64
}
