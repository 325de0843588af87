// Package memory implementa el ledger, los pedidos y el TxRunner en proceso.
// Útil para desarrollo local, tests y despliegues de una sola instancia sin base de datos.
package memory

import (
	"sync"
	"time"
)

// DB agrupa el estado en memoria compartido por los repositorios.
type DB struct {
	productsMu sync.RWMutex
	products   map[string]*productCell

	ordersMu sync.RWMutex
	orders   map[string]*orderRecord
	orderSeq uint64

	now func() time.Time
}

// NewDB crea una base vacía.
func NewDB() *DB {
	return &DB{
		products: make(map[string]*productCell),
		orders:   make(map[string]*orderRecord),
		now:      time.Now,
	}
}
