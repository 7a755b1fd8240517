package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/langchou/garage/internal/state"
	"github.com/langchou/garage/pkg/ws"
)

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(requestMetrics())

	// API 路由
	api := r.Group("/api")
	{
		// 车辆
		api.GET("/cars", h.ListCars)
		api.POST("/cars", h.CreateCar)
		api.DELETE("/cars", h.ClearCars)
		api.GET("/cars/:id", h.GetCar)
		api.PATCH("/cars/:id", h.UpdateCar)
		api.DELETE("/cars/:id", h.DeleteCar)

		// 历史记录
		api.POST("/cars/:id/insurance", addRecord(h, setInsuranceID, h.store.AddInsurance))
		api.PUT("/cars/:id/insurance/:recordId", updateRecord(h, setInsuranceID, h.store.UpdateInsurance))
		api.DELETE("/cars/:id/insurance/:recordId", deleteRecord(h, h.store.DeleteInsurance))

		api.POST("/cars/:id/inspections", addRecord(h, setInspectionID, h.store.AddInspection))
		api.PUT("/cars/:id/inspections/:recordId", updateRecord(h, setInspectionID, h.store.UpdateInspection))
		api.DELETE("/cars/:id/inspections/:recordId", deleteRecord(h, h.store.DeleteInspection))

		api.GET("/cars/:id/running-costs", h.ListRunningCosts)
		api.POST("/cars/:id/running-costs", addRecord(h, setRunningCostID, h.store.AddRunningCost))
		api.PUT("/cars/:id/running-costs/:recordId", updateRecord(h, setRunningCostID, h.store.UpdateRunningCost))
		api.DELETE("/cars/:id/running-costs/:recordId", deleteRecord(h, h.store.DeleteRunningCost))

		api.POST("/cars/:id/maintenance", addRecord(h, setMaintenanceID, h.store.AddMaintenance))
		api.PUT("/cars/:id/maintenance/:recordId", updateRecord(h, setMaintenanceID, h.store.UpdateMaintenance))
		api.DELETE("/cars/:id/maintenance/:recordId", deleteRecord(h, h.store.DeleteMaintenance))

		// 统计
		api.GET("/cars/:id/cost-breakdown", h.GetCostBreakdown)
		api.GET("/cars/:id/overview", h.GetOverview)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)

	// Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查，存储未就绪时返回 503
func (h *Handler) HealthCheck(c *gin.Context) {
	current := h.store.State()
	status := http.StatusOK
	if current != state.StateReady {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":     current,
		"cars":       len(h.store.Vehicles()),
		"ws_clients": h.wsHub.ClientCount(),
	})
}
