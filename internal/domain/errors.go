package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrProductNotFound   = errors.New("producto no encontrado")
	ErrOrderNotFound     = errors.New("pedido no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrAlreadyCancelled  = errors.New("el pedido ya está cancelado")
	ErrTransient         = errors.New("error transitorio de almacenamiento")
	ErrPartialFailure    = errors.New("fallo parcial: stock y pedidos inconsistentes")
	ErrVersionConflict   = errors.New("el producto cambió desde la última lectura")
)

// InsufficientStockError detalla un rechazo por stock insuficiente.
// Available es el stock observado en el instante del rechazo.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente. Disponible: %d, Solicitado: %d", e.Available, e.Requested)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// TransientError envuelve un fallo de almacenamiento reintentable (timeout, conexión perdida).
type TransientError struct {
	Op  string
	Err error
}

// Transient envuelve err como error transitorio de la operación op.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrTransient.Error(), e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

// PartialFailureError indica que el stock quedó ajustado sin el pedido correspondiente
// (o al revés) porque la compensación también falló. Requiere atención de un operador.
type PartialFailureError struct {
	Op           string
	Cause        error
	Compensation error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %s: causa: %v; compensación: %v", e.Op, ErrPartialFailure.Error(), e.Cause, e.Compensation)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{e.Cause, e.Compensation}
}

func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

// AvailableStock extrae el stock observado de un error de stock insuficiente.
func AvailableStock(err error) (int, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise.Available, true
	}
	return 0, false
}
