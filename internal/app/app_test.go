package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bcnelson/cidr-group-central/internal/config"
	"github.com/bcnelson/cidr-group-central/internal/storage/memory"
	"github.com/bcnelson/cidr-group-central/internal/storage/object"
	"github.com/bcnelson/cidr-group-central/internal/storage/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	store, err := OpenStore(config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)

	store, err = OpenStore(config.StoreConfig{Backend: "object", URL: "mem://localhost/app-test"})
	require.NoError(t, err)
	assert.IsType(t, &object.Store{}, store)

	dsn := filepath.Join(t.TempDir(), "nested", "groups.db")
	store, err = OpenStore(config.StoreConfig{Backend: "sql", Driver: "sqlite3", DSN: dsn, PageSize: 10})
	require.NoError(t, err)
	assert.IsType(t, &sql.Store{}, store)
	require.NoError(t, store.Close())

	_, err = OpenStore(config.StoreConfig{Backend: "nope"})
	assert.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	reg, store, err := NewRegistry(config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	_, err = reg.Create(ctx, "office", "Office", "10.0.0.0/8")
	require.NoError(t, err)

	data, err := store.Get(ctx, "office.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cidr":"10.0.0.0/8"`)
}
