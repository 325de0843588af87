package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Inventario-live/internal/domain"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/domain/repository"
)

const tracerName = "github.com/jhoicas/Inventario-live/internal/application/inventory"

// Config parámetros del servicio de inventario.
type Config struct {
	// StoreTimeout tope para cada operación completa (ambos round-trips). 0 = sin tope propio.
	StoreTimeout time.Duration
}

// Service orquesta la colocación y cancelación de pedidos sobre el ledger y el store de pedidos.
// No guarda estado propio ni toma locks en proceso: la serialización por producto la da la
// primitiva atómica del ledger, así que pedidos sobre productos distintos no se bloquean entre sí.
type Service struct {
	txRunner TxRunner
	orders   repository.OrderRepository
	notifier Notifier
	cfg      Config
	log      zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService construye el servicio. notifier puede ser nil (sin observadores).
func NewService(txRunner TxRunner, orders repository.OrderRepository, notifier Notifier, cfg Config, log zerolog.Logger) *Service {
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, entity.StockChangeEvent) {})
	}
	return &Service{
		txRunner: txRunner,
		orders:   orders,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// PlaceOrderInput entrada de PlaceOrder.
type PlaceOrderInput struct {
	ProductID string
	Quantity  int
	Requester string
}

func (in *PlaceOrderInput) normalize() error {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.Requester = norm.NFC.String(strings.TrimSpace(in.Requester))
	if in.ProductID == "" || in.Requester == "" || in.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	return nil
}

// OrderResult pedido afectado y stock disponible tras la mutación.
type OrderResult struct {
	Order          *entity.Order
	AvailableStock int
}

// PlaceOrder resta stock de forma condicional y registra el pedido confirmado en la misma transacción.
// Tras confirmar emite exactamente un StockChangeEvent con el stock resultante.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*OrderResult, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "inventory.PlaceOrder", trace.WithAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.Int("order.quantity", in.Quantity),
	))
	defer span.End()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		product *entity.Product
		order   *entity.Order
	)
	err := s.txRunner.Run(ctx, func(ledger repository.StockLedger, orders repository.OrderRepository) error {
		p, err := ledger.TryDecrement(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return err
		}
		o, err := orders.Create(ctx, &entity.Order{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    in.Quantity,
			Requester:   in.Requester,
			Status:      entity.OrderStatusConfirmed,
		})
		if err != nil {
			return err
		}
		product, order = p, o
		return nil
	})
	if err != nil {
		s.fail(span, "pedido rechazado", err).
			Str("product_id", in.ProductID).
			Int("quantity", in.Quantity).
			Msg("place order")
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID), attribute.Int("stock.available", product.AvailableStock))
	s.log.Info().
		Str("order_id", order.ID).
		Str("product_id", product.ID).
		Int("quantity", order.Quantity).
		Int("available_stock", product.AvailableStock).
		Msg("pedido confirmado")

	s.publish(ctx, product)
	return &OrderResult{Order: order, AvailableStock: product.AvailableStock}, nil
}

// CancelOrder pasa el pedido a cancelled y devuelve su cantidad al stock en la misma transacción.
// Un segundo intento devuelve domain.ErrAlreadyCancelled sin tocar el stock.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*OrderResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}

	ctx, span := s.tracer.Start(ctx, "inventory.CancelOrder", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		product *entity.Product
		order   *entity.Order
	)
	err := s.txRunner.Run(ctx, func(ledger repository.StockLedger, orders repository.OrderRepository) error {
		current, err := orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if current.IsCancelled() {
			return domain.ErrAlreadyCancelled
		}
		// MarkCancelled es condicional (solo desde confirmed): dos cancelaciones concurrentes
		// no pueden devolver el stock dos veces.
		o, err := orders.MarkCancelled(ctx, orderID)
		if err != nil {
			return err
		}
		p, err := ledger.Increment(ctx, o.ProductID, o.Quantity)
		if err != nil {
			return err
		}
		product, order = p, o
		return nil
	})
	if err != nil {
		s.fail(span, "cancelación rechazada", err).
			Str("order_id", orderID).
			Msg("cancel order")
		return nil, err
	}

	span.SetAttributes(attribute.Int("stock.available", product.AvailableStock))
	s.log.Info().
		Str("order_id", order.ID).
		Str("product_id", product.ID).
		Int("quantity", order.Quantity).
		Int("available_stock", product.AvailableStock).
		Msg("pedido cancelado")

	s.publish(ctx, product)
	return &OrderResult{Order: order, AvailableStock: product.AvailableStock}, nil
}

// GetOrder obtiene un pedido por ID.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.orders.GetByID(ctx, orderID)
}

// ListOrders lista los pedidos del más reciente al más antiguo.
func (s *Service) ListOrders(ctx context.Context) ([]*entity.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.orders.List(ctx)
}

// publish entrega el evento sin heredar la cancelación del request: un cliente que se desconecta
// justo después de confirmar no debe impedir que los demás observadores vean el cambio.
func (s *Service) publish(ctx context.Context, product *entity.Product) {
	s.notifier.Publish(context.WithoutCancel(ctx), entity.NewStockChangeEvent(product, s.now()))
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

// fail registra el error en el span y elige el nivel de log según su tipo.
func (s *Service) fail(span trace.Span, msg string, err error) *zerolog.Event {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	var ev *zerolog.Event
	switch {
	case errors.Is(err, domain.ErrPartialFailure):
		ev = s.log.Error()
	case errors.Is(err, domain.ErrTransient):
		ev = s.log.Warn()
	default:
		ev = s.log.Debug()
	}
	if available, ok := domain.AvailableStock(err); ok {
		ev = ev.Int("available_stock", available)
	}
	return ev.Err(err)
}
