package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"park_wallet/internal/domain"
	"park_wallet/internal/repository"
	"park_wallet/internal/service"
)

type WalletHandler struct {
	dashboard  *service.DashboardService
	bookingSvc *service.BookingService
}

func NewWalletHandler(ds *service.DashboardService, bs *service.BookingService) *WalletHandler {
	return &WalletHandler{dashboard: ds, bookingSvc: bs}
}

// GET /wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	wallet, err := h.dashboard.WalletBalance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi đọc số dư ví"})
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// POST /wallet/topup
func (h *WalletHandler) TopUp(c *gin.Context) {
	resp, err := h.dashboard.TopUp(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể nạp tiền vào ví", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /wallet/transactions
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	transactions, err := h.dashboard.Transactions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy lịch sử giao dịch"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// POST /wallet/charge
// Mô phỏng endpoint charge của backend giả lập: tính kết quả thuần từ đầu
// vào, KHÔNG ghi vào ví. Billing engine là chủ sở hữu duy nhất của việc áp
// dụng charge, nên endpoint này không thể tạo nguồn trừ tiền thứ hai.
func (h *WalletHandler) ChargeWallet(c *gin.Context) {
	var dto domain.ChargeWalletDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.bookingSvc.ChargeWallet(c.Request.Context(), dto.BookingID, dto.Amount, dto.CurrentBalance)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tính charge", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// POST /pricing/estimate
func (h *WalletHandler) EstimatePrice(c *gin.Context) {
	var dto domain.PriceEstimateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.dashboard.EstimatePrice(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ xe"})
			return
		}
		if errors.Is(err, service.ErrInvalidDuration) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tính giá ước lượng", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}
