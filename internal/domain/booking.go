package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type BookingStatus string

const (
	BookingActive                     BookingStatus = "active"
	BookingCompleted                  BookingStatus = "completed"
	BookingStoppedInsufficientBalance BookingStatus = "stopped_insufficient_balance"
)

type Booking struct {
	ID              string        `json:"id"` // Server cấp, dạng "BK<timestamp>-<hậu tố>"
	SlotID          string        `json:"slot_id"`
	SlotLabel       string        `json:"slot_label"`
	Floor           string        `json:"floor"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         null.Time     `json:"end_time"`
	DurationMinutes null.Int      `json:"duration_minutes"`
	TotalAmount     null.Float    `json:"total_amount"`
	RatePerMinute   float64       `json:"rate_per_minute"` // ADA/phút, cố định
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type StartBookingDTO struct {
	SlotID string `json:"slot_id"` // Tùy chọn: nếu có thì chọn slot này trước khi xác nhận
}

type StartBookingResponse struct {
	BookingID            string        `json:"booking_id"`
	SlotID               string        `json:"slot_id"`
	StartTime            time.Time     `json:"start_time"`
	RatePerMinute        float64       `json:"rate_per_minute"`
	CurrentWalletBalance float64       `json:"current_wallet_balance"`
	Status               BookingStatus `json:"status"`
}

type ChargeWalletDTO struct {
	BookingID      string  `json:"booking_id" binding:"required"`
	Amount         float64 `json:"amount" binding:"required"`
	CurrentBalance float64 `json:"current_balance"`
}

type ChargeWalletResponse struct {
	WalletBalance float64       `json:"wallet_balance"`
	BookingStatus BookingStatus `json:"booking_status"`
}

// EndBookingResponse tổng kết toàn bộ phiên đỗ: total_amount_charged được tính
// lại từ thời gian đỗ (floor theo phút) và chỉ mang tính báo cáo; ví KHÔNG bị
// trừ thêm lần nữa ở đây - các lần trừ định kỳ mới là nguồn ghi nợ duy nhất.
type EndBookingResponse struct {
	BookingID          string        `json:"booking_id"`
	TotalTimeMinutes   int64         `json:"total_time_minutes"`
	TotalAmountCharged float64       `json:"total_amount_charged"`
	FinalWalletBalance float64       `json:"final_wallet_balance"`
	Status             BookingStatus `json:"status"`
}

// ActiveBookingSnapshot - trạng thái hiển thị của booking đang chạy, được
// billing engine cập nhật mỗi giây.
type ActiveBookingSnapshot struct {
	Booking        Booking       `json:"booking"`
	ElapsedSeconds int64         `json:"elapsed_seconds"`
	TimeParked     string        `json:"time_parked"` // ví dụ "1h 5m 3s"
	EstimatedCost  float64       `json:"estimated_cost"`
	WalletBalance  float64       `json:"wallet_balance"`
	LowBalance     bool          `json:"low_balance"`
	Status         BookingStatus `json:"status"`
}
