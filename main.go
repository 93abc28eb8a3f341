package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"park_wallet/internal/api"
	"park_wallet/internal/api/handler"
	"park_wallet/internal/clock"
	"park_wallet/internal/config"
	"park_wallet/internal/repository/memory"
	"park_wallet/internal/service"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	// 2. Initialize Repositories (in-memory, sống theo vòng đời process)
	slotRepo := memory.NewParkingSlotRepo()
	bookingRepo := memory.NewBookingRepo()
	walletRepo := memory.NewWalletRepo(cfg.InitialBalance)

	// 3. init websocket manager
	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Println("WebSocket Manager đã được khởi động.")

	// 4. Initialize Services
	clk := clock.NewSystem()
	catalogService := service.NewSlotCatalogService(slotRepo, cfg, time.Now().UnixNano())
	bookingService := service.NewBookingService(bookingRepo, clk, cfg)
	billingEngine := service.NewBillingEngine(bookingService, bookingRepo, walletRepo, webSocketManager, clk, cfg)
	dashboardService := service.NewDashboardService(slotRepo, bookingRepo, walletRepo,
		catalogService, bookingService, billingEngine, webSocketManager, clk, cfg)

	// 5. Seed dữ liệu: catalog chỗ đỗ, đề xuất slot gần nhất, số dư ban đầu
	if err := dashboardService.Seed(context.Background()); err != nil {
		log.Fatalf("Không thể khởi tạo dữ liệu: %v", err)
	}

	// 6. Setup HTTP Router
	router := api.SetupRouter(dashboardService, bookingService, webSocketManager)

	// 7. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server đang chạy trên port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Lỗi ListenAndServe(): %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Đang tắt server...")

	// Dừng billing engine trước để không leak ticker
	billingEngine.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server buộc phải tắt: %v", err)
	}

	log.Println("Server đã tắt.")
}
