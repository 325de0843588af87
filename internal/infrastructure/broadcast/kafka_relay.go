package broadcast

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-live/internal/application/inventory"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
)

var _ inventory.Notifier = (*KafkaRelay)(nil)

// KafkaRelay replica los eventos vía un tópico Kafka. La clave del mensaje es el productId
// (balanceo Hash), así los eventos de un producto caen en la misma partición y conservan su orden.
// Cada instancia lee con su propio GroupID para recibir todos los eventos.
type KafkaRelay struct {
	writer     *kafka.Writer
	reader     *kafka.Reader
	hub        *Hub
	instanceID string
	out        outbox
	log        zerolog.Logger
}

// NewKafkaRelay construye writer y reader sobre topic.
func NewKafkaRelay(brokers []string, topic, instanceID string, hub *Hub, buffer int, log zerolog.Logger) *KafkaRelay {
	log = log.With().Str("relay", "kafka").Str("topic", topic).Logger()
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     "inventario-live-" + instanceID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		MaxWait:     500 * time.Millisecond,
	})
	return &KafkaRelay{
		writer:     writer,
		reader:     reader,
		hub:        hub,
		instanceID: instanceID,
		out:        newOutbox(buffer, log),
		log:        log,
	}
}

// Publish encola el evento para Kafka; no bloquea.
func (k *KafkaRelay) Publish(_ context.Context, ev entity.StockChangeEvent) {
	k.out.enqueue(ev)
}

// Run escribe la cola saliente y consume el tópico hasta que ctx termine.
func (k *KafkaRelay) Run(ctx context.Context) error {
	defer func() {
		if err := k.writer.Close(); err != nil {
			k.log.Warn().Err(err).Msg("cerrar writer kafka")
		}
		if err := k.reader.Close(); err != nil {
			k.log.Warn().Err(err).Msg("cerrar reader kafka")
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-k.out.ch:
				payload, err := encodeEvent(ev, k.instanceID)
				if err != nil {
					k.log.Error().Err(err).Msg("encode stock event")
					continue
				}
				msg := kafka.Message{Key: []byte(ev.ProductID), Value: payload}
				if err := k.writer.WriteMessages(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
					k.log.Warn().Err(err).Str("product_id", ev.ProductID).Int64("version", ev.Version).Msg("kafka write")
				}
			}
		}
	})
	g.Go(func() error {
		for {
			msg, err := k.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			deliverRemote(k.hub, k.log, k.instanceID, msg.Value)
		}
	})
	k.log.Info().Msg("relay kafka iniciado")
	return g.Wait()
}
