package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/garage/internal/api/handlers"
	"github.com/langchou/garage/internal/config"
	"github.com/langchou/garage/internal/persistence"
	"github.com/langchou/garage/internal/repository"
	"github.com/langchou/garage/internal/service"
	"github.com/langchou/garage/internal/store"
	"github.com/langchou/garage/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting Garage",
		zap.String("port", cfg.ServerPort),
		zap.String("backend", cfg.StorageBackend),
	)

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 打开存储
	kv, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer kv.Close()

	persister := persistence.New(kv, cfg.StorageKey, logger, persistence.WithSaveTimeout(cfg.SaveTimeout))

	// 创建车辆存储
	opts := []store.Option{store.WithStrictIDs(cfg.StrictIDs)}
	if !cfg.SeedDefaults {
		opts = append(opts, store.WithSeed(nil))
	}
	st := store.New(persister, logger, opts...)

	hydrateCtx, hydrateCancel := context.WithTimeout(ctx, cfg.HydrateTimeout)
	err = st.Hydrate(hydrateCtx)
	hydrateCancel()
	if err != nil {
		logger.Fatal("Failed to hydrate store", zap.Error(err))
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)

	// 创建车辆服务，存储变更推送到 WebSocket
	vehicleService := service.NewVehicleService(logger, st, wsHub)
	wsHub.SetInitDataProvider(vehicleService.InitData)
	go wsHub.Run(ctx)

	if err := vehicleService.Start(ctx); err != nil {
		logger.Fatal("Failed to start vehicle service", zap.Error(err))
	}

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(
		logger,
		st,
		service.NewInsights(st),
		wsHub,
		cfg.AllowReset,
	)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 停止服务，写出尚未落盘的快照
	vehicleService.Stop()
	if err := st.Dispose(shutdownCtx); err != nil {
		logger.Error("Failed to dispose store", zap.Error(err))
	}
	if err := persister.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close persister", zap.Error(err))
	}
	cancel()

	stats := persister.Stats()
	logger.Info("Server exited",
		zap.Uint64("writes", stats.Written),
		zap.Uint64("failed_writes", stats.Failed),
		zap.Uint64("coalesced", stats.Coalesced),
	)
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
