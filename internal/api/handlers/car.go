package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/garage/internal/models"
)

// ListCars 获取车辆列表
func (h *Handler) ListCars(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.store.Vehicles()})
}

// GetCar 获取车辆详情
func (h *Handler) GetCar(c *gin.Context) {
	car, ok := h.store.VehicleByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": car})
}

// CreateCar 新增车辆
// POST /api/cars
// 未提供 id 时自动生成
func (h *Handler) CreateCar(c *gin.Context) {
	var car models.Vehicle
	if err := c.ShouldBindJSON(&car); err != nil {
		badRequest(c)
		return
	}
	if car.ID == "" {
		car.ID = models.NewID()
	}

	if err := h.store.AddVehicle(car); err != nil {
		h.respondError(c, err, "add car")
		return
	}

	h.logger.Info("Car added via API", zap.String("car_id", car.ID))
	c.JSON(http.StatusCreated, gin.H{"data": car})
}

// UpdateCar 修改车辆属性
// PATCH /api/cars/:id
// 只修改请求中出现的字段，历史记录不受影响
func (h *Handler) UpdateCar(c *gin.Context) {
	var upd models.VehicleUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c)
		return
	}
	if upd.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	id := c.Param("id")
	if err := h.store.UpdateVehicle(id, upd); err != nil {
		h.respondError(c, err, "update car")
		return
	}

	car, _ := h.store.VehicleByID(id)
	c.JSON(http.StatusOK, gin.H{"data": car})
}

// DeleteCar 删除车辆及其全部历史记录
func (h *Handler) DeleteCar(c *gin.Context) {
	id := c.Param("id")
	removed, err := h.store.RemoveVehicle(id)
	if err != nil {
		h.respondError(c, err, "delete car")
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
		return
	}

	h.logger.Info("Car deleted via API", zap.String("car_id", id))
	c.Status(http.StatusNoContent)
}

// ClearCars 清空车辆集合
// DELETE /api/cars
// 仅在 ALLOW_RESET=true 时可用
func (h *Handler) ClearCars(c *gin.Context) {
	if !h.allowReset {
		c.JSON(http.StatusForbidden, gin.H{"error": "Reset is disabled"})
		return
	}

	if err := h.store.Clear(); err != nil {
		h.respondError(c, err, "clear cars")
		return
	}

	h.logger.Warn("All cars cleared via API")
	c.Status(http.StatusNoContent)
}
