package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	// Cấu hình lưới chỗ đỗ. SlotsPerRow là nguồn duy nhất cho độ rộng lưới:
	// cả bộ sinh catalog lẫn layout trả về cho frontend đều đọc từ đây.
	GridRows             int
	SlotsPerRow          int
	OccupancyProbability float64
	SlotPricePerHour     float64 // ADA/giờ, chỉ dùng cho panel ước tính giá
	FloorLabel           string

	// Cấu hình ví và tính phí (đơn vị ADA)
	RatePerMinute       float64 // Phí cố định cho mọi slot, không phụ thuộc giá theo giờ
	InitialBalance      float64
	TopUpAmount         float64
	LowBalanceThreshold float64

	ChargeInterval      time.Duration // Chu kỳ trừ tiền định kỳ
	ElapsedTickInterval time.Duration // Chu kỳ cập nhật thời gian đã đỗ

	// Độ trễ mô phỏng mạng cho các lời gọi backend giả lập
	StartBookingDelay time.Duration
	ChargeWalletDelay time.Duration
	EndBookingDelay   time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		GridRows:             getEnvInt("GRID_ROWS", 5),
		SlotsPerRow:          getEnvInt("SLOTS_PER_ROW", 12),
		OccupancyProbability: getEnvFloat("OCCUPANCY_PROBABILITY", 0.4),
		SlotPricePerHour:     getEnvFloat("SLOT_PRICE_PER_HOUR", 50),
		FloorLabel:           getEnv("FLOOR_LABEL", "Basement 1"),

		RatePerMinute:       getEnvFloat("RATE_PER_MINUTE", 2),
		InitialBalance:      getEnvFloat("INITIAL_BALANCE", 350),
		TopUpAmount:         getEnvFloat("TOPUP_AMOUNT", 500),
		LowBalanceThreshold: getEnvFloat("LOW_BALANCE_THRESHOLD", 50),

		ChargeInterval:      getEnvDurationMs("CHARGE_INTERVAL_MS", 60000),
		ElapsedTickInterval: getEnvDurationMs("ELAPSED_TICK_INTERVAL_MS", 1000),

		StartBookingDelay: getEnvDurationMs("START_BOOKING_DELAY_MS", 500),
		ChargeWalletDelay: getEnvDurationMs("CHARGE_WALLET_DELAY_MS", 300),
		EndBookingDelay:   getEnvDurationMs("END_BOOKING_DELAY_MS", 500),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Biến môi trường '%s' không phải số nguyên hợp lệ, sử dụng giá trị mặc định: %d", key, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Printf("Biến môi trường '%s' không phải số thực hợp lệ, sử dụng giá trị mặc định: %v", key, fallback)
	}
	return fallback
}

func getEnvDurationMs(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}
