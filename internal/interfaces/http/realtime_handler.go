package http

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-live/internal/application/dto"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/broadcast"
)

// Eventos que envía el cliente por el websocket.
const (
	EventJoinInventory  = "join-inventory"
	EventLeaveInventory = "leave-inventory"
)

const writeWait = 10 * time.Second

// RealtimeHandler expone el tópico inventory por websocket.
// El cliente envía {"event":"join-inventory"} para unirse y recibe {"event":"stock-updated","data":{...}}.
type RealtimeHandler struct {
	hub *broadcast.Hub
	log zerolog.Logger
}

// NewRealtimeHandler construye el handler.
func NewRealtimeHandler(hub *broadcast.Hub, log zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, log: log}
}

// Upgrade rechaza peticiones que no piden websocket.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve handler de la conexión ya establecida.
func (h *RealtimeHandler) Serve() fiber.Handler {
	return websocket.New(h.serve)
}

// frameConn lado de escritura de la conexión que usa el forwarder.
type frameConn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
	Close() error
}

// observer una conexión websocket. Solo el forwarder escribe, siempre bajo writeMu.
type observer struct {
	id      string
	conn    frameConn
	hub     *broadcast.Hub
	log     zerolog.Logger
	writeMu sync.Mutex
	wg      sync.WaitGroup

	mu      sync.Mutex
	current *broadcast.Subscription
}

func newObserver(hub *broadcast.Hub, conn frameConn, log zerolog.Logger) *observer {
	o := &observer{id: uuid.New().String(), conn: conn, hub: hub}
	o.log = log.With().Str("observer_id", o.id).Logger()
	return o
}

func (h *RealtimeHandler) serve(conn *websocket.Conn) {
	userID, _ := conn.Locals(LocalUserID).(string)
	o := newObserver(h.hub, conn, h.log.With().Str("user_id", userID).Logger())
	o.log.Debug().Msg("websocket conectado")
	defer o.disconnect()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame dto.RealtimeFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			o.log.Debug().Err(err).Msg("mensaje websocket inválido")
			continue
		}
		o.handle(frame.Event)
	}
}

func (o *observer) handle(event string) {
	switch event {
	case EventJoinInventory:
		o.join()
	case EventLeaveInventory:
		o.hub.Unsubscribe(o.id)
	default:
		o.log.Debug().Str("event", event).Msg("evento websocket desconocido")
	}
}

// disconnect equivale a salir del tópico; espera a que el forwarder termine.
func (o *observer) disconnect() {
	o.hub.Unsubscribe(o.id)
	o.wg.Wait()
	o.log.Debug().Msg("websocket desconectado")
}

// join suscribe al observador y arranca su forwarder. Unirse dos veces no duplica la entrega:
// Subscribe es idempotente y el forwarder sale cuando el canal se cierra.
func (o *observer) join() {
	o.mu.Lock()
	sub := o.hub.Subscribe(o.id)
	if o.current == sub {
		o.mu.Unlock()
		return
	}
	o.current = sub
	o.mu.Unlock()
	o.log.Debug().Str("topic", broadcast.Topic).Msg("observador unido")

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for ev := range sub.C {
			data := dto.NewStockChangeDTO(ev)
			if err := o.write(dto.RealtimeFrame{Event: dto.StockUpdatedEvent, Data: &data}); err != nil {
				o.log.Debug().Err(err).Msg("escritura websocket fallida")
				o.dropIfCurrent(sub)
				// al cerrar, serve sale de ReadMessage y su defer desuscribe
				_ = o.conn.Close()
				for range sub.C {
				}
				return
			}
		}
	}()
}

// dropIfCurrent desuscribe solo si sub sigue siendo la suscripción vigente: tras un
// leave + join la suscripción nueva no es de este forwarder.
func (o *observer) dropIfCurrent(sub *broadcast.Subscription) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == sub {
		o.hub.Unsubscribe(o.id)
	}
}

func (o *observer) write(frame dto.RealtimeFrame) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()
	if err := o.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return o.conn.WriteJSON(frame)
}
