package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/garage/internal/models"
)

func setInsuranceID(r *models.InsuranceRecord, id string)     { r.ID = id }
func setInspectionID(r *models.InspectionRecord, id string)   { r.ID = id }
func setRunningCostID(r *models.RunningCostRecord, id string) { r.ID = id }
func setMaintenanceID(r *models.MaintenanceRecord, id string) { r.ID = id }

// addRecord 新增历史记录，未提供 id 时自动生成
func addRecord[R models.Record](
	h *Handler,
	setID func(*R, string),
	add func(vehicleID string, rec R) error,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec R
		if err := c.ShouldBindJSON(&rec); err != nil {
			badRequest(c)
			return
		}
		if rec.RecordID() == "" {
			setID(&rec, models.NewID())
		}

		if err := add(c.Param("id"), rec); err != nil {
			h.respondError(c, err, "add record")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"data": rec})
	}
}

// updateRecord 整体替换历史记录，id 以路径为准
func updateRecord[R models.Record](
	h *Handler,
	setID func(*R, string),
	update func(vehicleID, recordID string, rec R) error,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec R
		if err := c.ShouldBindJSON(&rec); err != nil {
			badRequest(c)
			return
		}

		recordID := c.Param("recordId")
		if err := update(c.Param("id"), recordID, rec); err != nil {
			h.respondError(c, err, "update record")
			return
		}

		setID(&rec, recordID)
		c.JSON(http.StatusOK, gin.H{"data": rec})
	}
}

func deleteRecord(h *Handler, del func(vehicleID, recordID string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := del(c.Param("id"), c.Param("recordId")); err != nil {
			h.respondError(c, err, "delete record")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
