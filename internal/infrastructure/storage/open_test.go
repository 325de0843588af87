package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-live/internal/infrastructure/storage"
	"github.com/jhoicas/Inventario-live/pkg/config"
)

func TestOpen_SQLiteYMemory(t *testing.T) {
	for _, driver := range []string{config.StoreDriverSQLite, config.StoreDriverMemory} {
		t.Run(driver, func(t *testing.T) {
			cfg := &config.Config{Store: config.StoreConfig{
				Driver:     driver,
				SQLitePath: filepath.Join(t.TempDir(), "inv.db"),
			}}
			st, err := storage.Open(context.Background(), cfg, zerolog.Nop())
			require.NoError(t, err)
			defer st.Close()

			assert.Equal(t, driver, st.Driver)
			assert.NoError(t, st.Ping(context.Background()))
			list, err := st.Products.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestOpen_DriverDesconocido(t *testing.T) {
	_, err := storage.Open(context.Background(), &config.Config{Store: config.StoreConfig{Driver: "mongo"}}, zerolog.Nop())
	assert.Error(t, err)
}
