package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/garage/internal/models"
	"github.com/langchou/garage/internal/service"
	"github.com/langchou/garage/internal/store"
	"github.com/langchou/garage/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger     *zap.Logger
	store      *store.Store
	insights   *service.Insights
	wsHub      *ws.Hub
	allowReset bool
	upgrader   websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	st *store.Store,
	insights *service.Insights,
	wsHub *ws.Hub,
	allowReset bool,
) *Handler {
	return &Handler{
		logger:     logger,
		store:      st,
		insights:   insights,
		wsHub:      wsHub,
		allowReset: allowReset,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// respondError 把存储层错误映射为 HTTP 状态码
func (h *Handler) respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateID):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Store not ready"})
	default:
		h.logger.Error("Failed to "+action, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}
