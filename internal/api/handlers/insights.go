package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListRunningCosts 获取按日期倒序排列的运行费用
func (h *Handler) ListRunningCosts(c *gin.Context) {
	costs, err := h.insights.SortedCosts(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "list running costs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": costs})
}

// GetCostBreakdown 获取费用分类汇总
func (h *Handler) GetCostBreakdown(c *gin.Context) {
	breakdown, err := h.insights.CostBreakdown(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get cost breakdown")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": breakdown})
}

// GetOverview 获取车辆概览（保险、年检、保养）
func (h *Handler) GetOverview(c *gin.Context) {
	overview, err := h.insights.Overview(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get overview")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": overview})
}
