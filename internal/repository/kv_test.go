package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/garage/internal/config"
)

// exerciseKV 所有后端共用的行为检查
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "car-storage")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "car-storage", []byte(`{"version":1,"cars":[]}`)))
	got, err := kv.Get(ctx, "car-storage")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"cars":[]}`, string(got))

	require.NoError(t, kv.Set(ctx, "car-storage", []byte(`{"version":1,"cars":[{"id":"1"}]}`)))
	got, err = kv.Get(ctx, "car-storage")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"cars":[{"id":"1"}]}`, string(got), "set overwrites")

	require.NoError(t, kv.Set(ctx, "other", []byte(`{}`)))
	require.NoError(t, kv.Remove(ctx, "car-storage"))
	_, err = kv.Get(ctx, "car-storage")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = kv.Get(ctx, "other")
	assert.NoError(t, err, "remove only touches its own key")

	assert.NoError(t, kv.Remove(ctx, "never-written"))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	value := []byte(`{"a":1}`)
	require.NoError(t, kv.Set(ctx, "k", value))
	value[2] = 'b'

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestMemoryKV_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewMemoryKV().Set(ctx, "k", []byte("v")), context.Canceled)
}

func TestFileKV(t *testing.T) {
	kv, err := NewFileKV(filepath.Join(t.TempDir(), "nested", "data"))
	require.NoError(t, err)
	exerciseKV(t, kv)
}

func TestFileKV_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Set(context.Background(), "car-storage", []byte(`[]`)))
	require.NoError(t, kv.Set(context.Background(), "car-storage", []byte(`[1]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "car-storage.json", entries[0].Name())
}

func TestFileKV_EscapesKeys(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Set(context.Background(), "../escape", []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "key stays inside the data dir")
}

func TestSQLiteKV(t *testing.T) {
	kv, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "garage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	exerciseKV(t, kv)
}

func TestSQLiteKV_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage.db")
	ctx := context.Background()

	kv, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "car-storage", []byte(`{"version":1}`)))
	require.NoError(t, kv.Close())

	kv, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	got, err := kv.Get(ctx, "car-storage")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got))
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "  ")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop()

	tests := []struct {
		backend string
		want    interface{}
	}{
		{config.BackendMemory, &MemoryKV{}},
		{config.BackendFile, &FileKV{}},
		{config.BackendSQLite, &SQLiteKV{}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &config.Config{
				StorageBackend: tt.backend,
				DataDir:        filepath.Join(dir, "files"),
				SQLitePath:     filepath.Join(dir, "garage.db"),
			}
			kv, err := Open(context.Background(), cfg, logger)
			require.NoError(t, err)
			t.Cleanup(func() { _ = kv.Close() })
			assert.IsType(t, tt.want, kv)
		})
	}

	_, err := Open(context.Background(), &config.Config{StorageBackend: "tape"}, logger)
	assert.Error(t, err)
}
