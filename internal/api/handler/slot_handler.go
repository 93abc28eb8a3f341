package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"park_wallet/internal/repository"
	"park_wallet/internal/service"
)

type SlotHandler struct {
	dashboard *service.DashboardService
}

func NewSlotHandler(ds *service.DashboardService) *SlotHandler {
	return &SlotHandler{dashboard: ds}
}

// GET /slots
func (h *SlotHandler) GetOverview(c *gin.Context) {
	overview, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách chỗ đỗ xe"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

// POST /slots/:slot_id/select
func (h *SlotHandler) SelectSlot(c *gin.Context) {
	slotID := c.Param("slot_id")

	slot, err := h.dashboard.SelectSlot(c.Request.Context(), slotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ xe"})
			return
		}
		if errors.Is(err, repository.ErrSlotUnavailable) {
			c.JSON(http.StatusConflict, gin.H{"error": "Chỗ đỗ này đã có xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể chọn chỗ đỗ xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, slot)
}

// DELETE /slots/selection
func (h *SlotHandler) ClearSelection(c *gin.Context) {
	if err := h.dashboard.ClearSelection(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể bỏ chọn chỗ đỗ xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
