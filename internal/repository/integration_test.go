package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgresKV_Integration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	kv, err := openPostgres(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	_ = kv.Remove(context.Background(), "car-storage")
	_ = kv.Remove(context.Background(), "other")
	exerciseKV(t, kv)
}

func TestMongoKV_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	kv, err := ConnectMongo(context.Background(), uri, "garage_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	_ = kv.Remove(context.Background(), "car-storage")
	_ = kv.Remove(context.Background(), "other")
	exerciseKV(t, kv)
}
