// Package broadcast implementa el registro de suscripciones y el notificador de cambios de stock,
// más los relays que replican los eventos entre instancias (Redis pub/sub o Kafka).
package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-live/internal/application/inventory"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
)

// Topic es el único tópico: todos los observadores ven todos los productos.
const Topic = "inventory"

var _ inventory.Notifier = (*Hub)(nil)

// Subscription cola de eventos de un observador. C se cierra al desuscribirse.
type Subscription struct {
	ObserverID string
	C          <-chan entity.StockChangeEvent

	ch      chan entity.StockChangeEvent
	dropped atomic.Uint64
}

// Dropped eventos descartados porque la cola del observador estaba llena.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Stats contadores del hub.
type Stats struct {
	Subscribers int
	Delivered   uint64
	Dropped     uint64
	Stale       uint64
}

// Hub registra observadores y les reparte los eventos sin bloquear al publicador.
//
// El mutex cubre la comprobación de versión y los envíos no bloqueantes, así que dos
// publicaciones del mismo producto llegan a cada cola en orden de versión. Un evento con versión
// menor o igual a la última entregada para ese producto se descarta (llegó tarde o es un eco del relay).
type Hub struct {
	mu     sync.Mutex
	subs   map[string]*Subscription
	last   map[string]int64
	buffer int
	log    zerolog.Logger

	delivered atomic.Uint64
	dropped   atomic.Uint64
	stale     atomic.Uint64
}

// NewHub crea un hub con colas de buffer eventos por observador.
func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[string]*Subscription),
		last:   make(map[string]int64),
		buffer: buffer,
		log:    log,
	}
}

// Subscribe une al observador al tópico. Es idempotente: repetir devuelve la misma suscripción.
// Solo recibe eventos publicados después de unirse.
func (h *Hub) Subscribe(observerID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[observerID]; ok {
		return s
	}
	ch := make(chan entity.StockChangeEvent, h.buffer)
	s := &Subscription{ObserverID: observerID, C: ch, ch: ch}
	h.subs[observerID] = s
	h.log.Debug().Str("observer_id", observerID).Int("subscribers", len(h.subs)).Msg("observador unido")
	return s
}

// Unsubscribe saca al observador y cierra su canal. Sin efecto si no estaba suscrito.
func (h *Hub) Unsubscribe(observerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.subs[observerID]
	if !ok {
		return
	}
	delete(h.subs, observerID)
	close(s.ch)
	h.log.Debug().Str("observer_id", observerID).Int("subscribers", len(h.subs)).Msg("observador retirado")
}

// Publish implementa inventory.Notifier.
func (h *Hub) Publish(_ context.Context, ev entity.StockChangeEvent) {
	h.Deliver(ev)
}

// Deliver reparte ev a los observadores actuales. Devuelve false si se descartó por versión vieja.
func (h *Hub) Deliver(ev entity.StockChangeEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if last, ok := h.last[ev.ProductID]; ok && ev.Version <= last {
		h.stale.Add(1)
		h.log.Debug().
			Str("product_id", ev.ProductID).
			Int64("version", ev.Version).
			Int64("last_version", last).
			Msg("evento de stock obsoleto descartado")
		return false
	}
	h.last[ev.ProductID] = ev.Version

	for id, s := range h.subs {
		select {
		case s.ch <- ev:
			h.delivered.Add(1)
		default:
			s.dropped.Add(1)
			h.dropped.Add(1)
			h.log.Warn().
				Str("observer_id", id).
				Str("product_id", ev.ProductID).
				Int64("version", ev.Version).
				Msg("cola del observador llena, evento descartado")
		}
	}
	return true
}

// Subscribers cantidad de observadores unidos.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Stats devuelve los contadores actuales.
func (h *Hub) Stats() Stats {
	return Stats{
		Subscribers: h.Subscribers(),
		Delivered:   h.delivered.Load(),
		Dropped:     h.dropped.Load(),
		Stale:       h.stale.Load(),
	}
}
