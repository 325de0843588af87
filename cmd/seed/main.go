// seed carga el catálogo inicial de productos en el almacenamiento configurado.
//
// Uso: go run ./cmd/seed [-reset] [-dev-token] [ruta/productos.json]
// El JSON es una lista [{"name": "...", "availableStock": N}]. Sin archivo se usa el catálogo
// de demostración. Los productos cuyo nombre ya existe no se duplican.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-live/internal/application/dto"
	"github.com/jhoicas/Inventario-live/internal/application/usecase"
	"github.com/jhoicas/Inventario-live/internal/domain/entity"
	"github.com/jhoicas/Inventario-live/internal/infrastructure/storage"
	"github.com/jhoicas/Inventario-live/pkg/config"
	pkgjwt "github.com/jhoicas/Inventario-live/pkg/jwt"
	"github.com/jhoicas/Inventario-live/pkg/logger"
)

var demoCatalog = []dto.CreateProductRequest{
	{Name: "Laptop", AvailableStock: 10},
	{Name: "Mouse", AvailableStock: 25},
	{Name: "Keyboard", AvailableStock: 15},
	{Name: "Monitor", AvailableStock: 8},
	{Name: "Headphones", AvailableStock: 20},
}

func main() {
	reset := flag.Bool("reset", false, "eliminar los productos existentes antes de cargar")
	devToken := flag.Bool("dev-token", false, "imprimir un token admin de desarrollo (requiere JWT_SECRET)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	catalog := demoCatalog
	if flag.NArg() > 0 {
		catalog, err = readCatalog(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// el seed no distingue componentes: un solo logger para toda la corrida
	store, err := storage.Open(ctx, cfg, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer store.Close()

	existing, err := store.Products.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("listar productos")
	}
	if *reset {
		for _, p := range existing {
			if err := store.Products.Delete(ctx, p.ID); err != nil {
				log.Fatal().Err(err).Str("product_id", p.ID).Msg("eliminar producto")
			}
		}
		log.Info().Int("deleted", len(existing)).Msg("productos eliminados")
		existing = nil
	}

	// Sin notificador: el seed corre fuera del servidor y no hay observadores conectados
	uc := usecase.NewProductUseCase(store.Products, nil)
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[strings.ToLower(p.Name)] = true
	}

	created := 0
	for _, item := range catalog {
		key := strings.ToLower(strings.TrimSpace(item.Name))
		if seen[key] {
			log.Debug().Str("name", item.Name).Msg("producto ya existe, se omite")
			continue
		}
		p, err := uc.Create(ctx, item)
		if err != nil {
			log.Fatal().Err(err).Str("name", item.Name).Msg("crear producto")
		}
		seen[key] = true
		created++
		fmt.Printf("%s\t%s\t%d\n", p.ID, p.Name, p.AvailableStock)
	}
	log.Info().Int("created", created).Str("store", store.Driver).Msg("seed completado")

	if *devToken {
		if cfg.JWT.Secret == "" {
			log.Warn().Msg("JWT_SECRET vacío, no se genera token")
			return
		}
		tok, err := pkgjwt.Generate(cfg.JWT.Secret, uuid.NewString(), "Admin Dev", entity.RoleAdmin, cfg.JWT.Issuer, 24*60)
		if err != nil {
			log.Fatal().Err(err).Msg("generar token")
		}
		fmt.Printf("\nBearer %s\n", tok)
	}
}

func readCatalog(path string) ([]dto.CreateProductRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []dto.CreateProductRequest
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
