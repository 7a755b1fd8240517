package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/langchou/garage/internal/config"
)

// Open 按配置打开存储后端
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (KV, error) {
	var (
		kv  KV
		err error
	)

	switch cfg.StorageBackend {
	case config.BackendMemory:
		kv = NewMemoryKV()
	case config.BackendFile:
		kv, err = NewFileKV(cfg.DataDir)
	case config.BackendSQLite:
		kv, err = OpenSQLite(ctx, cfg.SQLitePath)
	case config.BackendPostgres:
		kv, err = openPostgres(ctx, cfg.DatabaseURL)
	case config.BackendRedis:
		kv, err = DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.BackendMongo:
		kv, err = ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageBackend, err)
	}

	logger.Info("Storage opened", zap.String("backend", cfg.StorageBackend))
	return kv, nil
}

func openPostgres(ctx context.Context, databaseURL string) (*PostgresKV, error) {
	db, err := New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewPostgresKV(db), nil
}
