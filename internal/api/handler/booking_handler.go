package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"park_wallet/internal/domain"
	"park_wallet/internal/repository"
	"park_wallet/internal/service"
)

type BookingHandler struct {
	dashboard *service.DashboardService
}

func NewBookingHandler(ds *service.DashboardService) *BookingHandler {
	return &BookingHandler{dashboard: ds}
}

// POST /bookings/start
// Body có thể kèm slot_id để chọn slot ngay trong lời gọi; nếu không thì
// dùng slot đang được chọn từ trước.
func (h *BookingHandler) StartBooking(c *gin.Context) {
	var dto domain.StartBookingDTO
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&dto); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ctx := c.Request.Context()
	if dto.SlotID != "" {
		if _, err := h.dashboard.SelectSlot(ctx, dto.SlotID); err != nil {
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
	}

	resp, err := h.dashboard.ConfirmBooking(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNoSlotSelected) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Chưa chọn chỗ đỗ nào"})
			return
		}
		if errors.Is(err, repository.ErrBookingAlreadyActive) {
			c.JSON(http.StatusConflict, gin.H{"error": "Đã có booking đang hoạt động"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể bắt đầu booking", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// POST /bookings/end
func (h *BookingHandler) EndBooking(c *gin.Context) {
	resp, err := h.dashboard.EndActiveBooking(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveBooking) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không có booking đang hoạt động"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể kết thúc booking", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /bookings/active
func (h *BookingHandler) GetActiveBooking(c *gin.Context) {
	snapshot, err := h.dashboard.ActiveBookingSnapshot(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveBooking) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không có booking đang hoạt động"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy booking đang hoạt động"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GET /bookings/history
func (h *BookingHandler) GetBookingHistory(c *gin.Context) {
	history, err := h.dashboard.BookingHistory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy lịch sử booking"})
		return
	}
	c.JSON(http.StatusOK, history)
}
