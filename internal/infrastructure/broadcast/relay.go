package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-live/internal/application/dto"
	"github.com/jhoicas/Inventario-live/internal/application/inventory"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
)

// Multi reparte cada evento a varios notificadores (hub local + relay).
type Multi []inventory.Notifier

// Publish implementa inventory.Notifier.
func (m Multi) Publish(ctx context.Context, ev entity.StockChangeEvent) {
	for _, n := range m {
		n.Publish(ctx, ev)
	}
}

// wireEvent forma del evento en el broker: el mismo JSON que ve el websocket más el origen.
type wireEvent struct {
	dto.StockChangeDTO
	Origin string `json:"origin,omitempty"`
}

func encodeEvent(ev entity.StockChangeEvent, origin string) ([]byte, error) {
	return json.Marshal(wireEvent{StockChangeDTO: dto.NewStockChangeDTO(ev), Origin: origin})
}

func decodeEvent(payload []byte) (entity.StockChangeEvent, string, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return entity.StockChangeEvent{}, "", fmt.Errorf("decode stock event: %w", err)
	}
	if w.ProductID == "" || w.Version <= 0 {
		return entity.StockChangeEvent{}, "", fmt.Errorf("decode stock event: productId y version requeridos")
	}
	return w.ToEntity(), w.Origin, nil
}

// outbox cola no bloqueante entre el servicio y el loop de un relay.
type outbox struct {
	ch  chan entity.StockChangeEvent
	log zerolog.Logger
}

func newOutbox(buffer int, log zerolog.Logger) outbox {
	if buffer <= 0 {
		buffer = 64
	}
	return outbox{ch: make(chan entity.StockChangeEvent, buffer), log: log}
}

func (o outbox) enqueue(ev entity.StockChangeEvent) {
	select {
	case o.ch <- ev:
	default:
		o.log.Warn().
			Str("product_id", ev.ProductID).
			Int64("version", ev.Version).
			Msg("cola del relay llena, evento no replicado")
	}
}

// deliverRemote entrega al hub local un evento recibido del broker.
func deliverRemote(hub *Hub, log zerolog.Logger, instanceID string, payload []byte) {
	ev, origin, err := decodeEvent(payload)
	if err != nil {
		log.Warn().Err(err).Msg("mensaje del broker ignorado")
		return
	}
	if origin == instanceID {
		return // eco de un evento propio, ya entregado localmente
	}
	hub.Deliver(ev)
}
