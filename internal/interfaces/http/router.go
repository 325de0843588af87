package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-live/internal/application/inventory"
	"github.com/jhoicas/Inventario-live/internal/application/usecase"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/broadcast"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Inventory   *inventory.Service
	ProductUC   *usecase.ProductUseCase
	Hub         *broadcast.Hub
	JWTSecret   string
	ServiceName string
	StoreDriver string
	Ping        func(ctx context.Context) error
	Log         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps))

	// Websocket: auth por header o ?token= antes del upgrade
	realtime := NewRealtimeHandler(deps.Hub, deps.Log.With().Str("component", "realtime").Logger())
	app.Get("/ws/inventory", AuthMiddleware(deps.JWTSecret), realtime.Upgrade, realtime.Serve())

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	orders := protected.Group("/orders", RequireRole(entity.RoleAdmin, entity.RoleStaff))
	orderHandler := NewOrderHandler(deps.Inventory)
	orders.Post("/", orderHandler.Place)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Patch("/:id/cancel", orderHandler.Cancel)

	// Products: lectura para cualquier rol conocido, escritura solo admin
	products := protected.Group("/products", RequireRole(entity.RoleAdmin, entity.RoleStaff, entity.RoleUser))
	productHandler := NewProductHandler(deps.ProductUC)
	adminOnly := RequireRole(entity.RoleAdmin)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", adminOnly, productHandler.Create)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)
}

func healthHandler(deps RouterDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, code := "ok", fiber.StatusOK
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				deps.Log.Warn().Err(err).Msg("health: almacenamiento no responde")
				status, code = "degraded", fiber.StatusServiceUnavailable
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status":      status,
			"service":     deps.ServiceName,
			"store":       deps.StoreDriver,
			"subscribers": deps.Hub.Subscribers(),
		})
	}
}
