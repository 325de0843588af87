package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-live/internal/application/inventory"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
)

var _ inventory.Notifier = (*RedisRelay)(nil)

// RedisRelay replica los eventos de stock entre instancias con PUBLISH/SUBSCRIBE.
type RedisRelay struct {
	client     *redis.Client
	channel    string
	hub        *Hub
	instanceID string
	out        outbox
	log        zerolog.Logger
}

// NewRedisRelay construye el relay. Los eventos recibidos se entregan a hub.
func NewRedisRelay(client *redis.Client, channel, instanceID string, hub *Hub, buffer int, log zerolog.Logger) *RedisRelay {
	log = log.With().Str("relay", "redis").Str("channel", channel).Logger()
	return &RedisRelay{
		client:     client,
		channel:    channel,
		hub:        hub,
		instanceID: instanceID,
		out:        newOutbox(buffer, log),
		log:        log,
	}
}

// Publish encola el evento para el broker; no bloquea.
func (r *RedisRelay) Publish(_ context.Context, ev entity.StockChangeEvent) {
	r.out.enqueue(ev)
}

// Run se suscribe al canal y atiende publicaciones y recepciones hasta que ctx termine.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}
	r.log.Info().Msg("relay redis suscrito")

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-r.out.ch:
			payload, err := encodeEvent(ev, r.instanceID)
			if err != nil {
				r.log.Error().Err(err).Msg("encode stock event")
				continue
			}
			if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil && !errors.Is(err, context.Canceled) {
				r.log.Warn().Err(err).Str("product_id", ev.ProductID).Int64("version", ev.Version).Msg("redis publish")
			}
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("redis: suscripción cerrada")
			}
			deliverRemote(r.hub, r.log, r.instanceID, []byte(msg.Payload))
		}
	}
}
