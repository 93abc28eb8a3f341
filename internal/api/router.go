package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"park_wallet/internal/api/handler"
	"park_wallet/internal/service"
)

func SetupRouter(ds *service.DashboardService, bs *service.BookingService, wsManager *handler.WebSocketManager) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint cho event stream (charge, cảnh báo, booking dừng)
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		slotH := handler.NewSlotHandler(ds)
		slotRoutes := v1.Group("/slots")
		{
			slotRoutes.GET("", slotH.GetOverview)
			slotRoutes.POST("/:slot_id/select", slotH.SelectSlot)
			slotRoutes.DELETE("/selection", slotH.ClearSelection)
		}

		bookingH := handler.NewBookingHandler(ds)
		bookingRoutes := v1.Group("/bookings")
		{
			bookingRoutes.POST("/start", bookingH.StartBooking)
			bookingRoutes.POST("/end", bookingH.EndBooking)
			bookingRoutes.GET("/active", bookingH.GetActiveBooking)
			bookingRoutes.GET("/history", bookingH.GetBookingHistory)
		}

		walletH := handler.NewWalletHandler(ds, bs)
		walletRoutes := v1.Group("/wallet")
		{
			walletRoutes.GET("", walletH.GetWallet)
			walletRoutes.POST("/topup", walletH.TopUp)
			walletRoutes.POST("/charge", walletH.ChargeWallet)
			walletRoutes.GET("/transactions", walletH.GetTransactions)
		}

		v1.POST("/pricing/estimate", walletH.EstimatePrice)
	}
	return r
}
