package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-live/internal/domain"
)

func TestInsufficientStockError(t *testing.T) {
	err := fmt.Errorf("place order: %w", &domain.InsufficientStockError{ProductID: "p1", Requested: 3, Available: 2})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NotErrorIs(t, err, domain.ErrTransient)
	available, ok := domain.AvailableStock(err)
	assert.True(t, ok)
	assert.Equal(t, 2, available)
	assert.Contains(t, err.Error(), "Disponible: 2")

	_, ok = domain.AvailableStock(domain.ErrProductNotFound)
	assert.False(t, ok)
}

func TestTransient(t *testing.T) {
	assert.NoError(t, domain.Transient("op", nil))

	err := domain.Transient("try decrement", context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestPartialFailureError(t *testing.T) {
	cause := errors.New("insert order")
	comp := domain.ErrProductNotFound
	err := &domain.PartialFailureError{Op: "place order", Cause: cause, Compensation: comp}

	assert.ErrorIs(t, err, domain.ErrPartialFailure)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
