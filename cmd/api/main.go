package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-live/internal/application/inventory"
	"github.com/jhoicas/Inventario-live/internal/application/usecase"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/broadcast"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/storage"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/Inventario-live/internal/interfaces/http"
	"github.com/jhoicas/Inventario-live/pkg/config"
	"github.com/jhoicas/Inventario-live/pkg/logger"
)

// relay réplica de eventos entre instancias (Redis o Kafka).
type relay interface {
	inventory.Notifier
	Run(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Str("broker", cfg.Broker.Kind).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.Setup(ctx, cfg.App.Name, cfg.App.Env, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar tracing")
	}

	store, err := storage.Open(ctx, cfg, log.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer store.Close()

	hub := broadcast.NewHub(cfg.Notify.Buffer, log.Component("hub"))
	notifier := broadcast.Multi{hub}

	instanceID := instanceName()
	var rl relay
	switch cfg.Broker.Kind {
	case config.BrokerRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Broker.RedisAddr})
		defer client.Close()
		rl = broadcast.NewRedisRelay(client, cfg.Broker.RedisChannel, instanceID, hub, cfg.Notify.Buffer, log.Component("relay"))
	case config.BrokerKafka:
		rl = broadcast.NewKafkaRelay(cfg.Broker.KafkaBrokers, cfg.Broker.KafkaTopic, instanceID, hub, cfg.Notify.Buffer, log.Component("relay"))
	}
	if rl != nil {
		notifier = append(notifier, rl)
	}

	inventorySvc := inventory.NewService(store.Tx, store.Orders, notifier, inventory.Config{
		StoreTimeout: cfg.Store.Timeout,
	}, log.Component("inventory"))
	productUC := usecase.NewProductUseCase(store.Products, notifier)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log.Component("http")),
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerPath); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerPath,
			Path:     "docs",
			Title:    "Inventario Live API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Inventory:   inventorySvc,
		ProductUC:   productUC,
		Hub:         hub,
		JWTSecret:   cfg.JWT.Secret,
		ServiceName: cfg.App.Name,
		StoreDriver: store.Driver,
		Ping:        store.Ping,
		Log:         log.Component("http"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})
	if rl != nil {
		g.Go(func() error {
			// Sin broker los observadores locales siguen recibiendo eventos
			if err := rl.Run(gctx); err != nil {
				log.Error().Err(err).Str("instance", instanceID).Msg("relay detenido, solo entrega local")
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("apagado del servidor")
		}
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("cerrar tracer")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor HTTP finalizado")
	}
	log.Info().Msg("aplicación detenida")
}

// instanceName identifica esta instancia en los relays: hostname más un sufijo aleatorio.
func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "inventario"
	}
	return host + "-" + uuid.NewString()[:8]
}
