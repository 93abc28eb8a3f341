package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"park_wallet/internal/clock"
	"park_wallet/internal/config"
	"park_wallet/internal/domain"
	"park_wallet/internal/repository"
)

// BookingService là backend giả lập cho vòng đời booking: start, trừ tiền
// định kỳ, end. Mỗi thao tác ngủ một độ trễ cấu hình để mô phỏng mạng; không
// có cancellation cho độ trễ này - client không thể hủy lời gọi đang bay.
// Cả ba thao tác là hàm thuần của đầu vào cộng với thời gian hiện tại:
// ChargeWallet và EndBooking KHÔNG tự ghi vào ví, việc áp dụng kết quả thuộc
// về billing engine / dashboard (chủ sở hữu ghi duy nhất).
type BookingService struct {
	bookingRepo repository.BookingRepository
	clk         clock.Clock
	cfg         *config.Config
}

func NewBookingService(bookingRepo repository.BookingRepository, clk clock.Clock, cfg *config.Config) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		clk:         clk,
		cfg:         cfg,
	}
}

// StartBooking luôn thành công: không kiểm tra tranh chấp slot, không kiểm
// tra số dư lúc bắt đầu. Rate là hằng số cấu hình, giống nhau cho mọi slot.
func (s *BookingService) StartBooking(ctx context.Context, slotID string, slotLabel string, floor string, currentBalance float64) (*domain.StartBookingResponse, *domain.Booking, error) {
	time.Sleep(s.cfg.StartBookingDelay) // Mô phỏng độ trễ mạng

	now := s.clk.Now()
	booking := &domain.Booking{
		// Timestamp cho người đọc, hậu tố uuid cho tính duy nhất (hai booking
		// có thể bắt đầu trong cùng một mili giây)
		ID:            fmt.Sprintf("BK%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		SlotID:        slotID,
		SlotLabel:     slotLabel,
		Floor:         floor,
		StartTime:     now,
		RatePerMinute: s.cfg.RatePerMinute,
		Status:        domain.BookingActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.bookingRepo.Create(ctx, booking)
	if err != nil {
		return nil, nil, fmt.Errorf("lỗi tạo booking: %w", err)
	}
	log.Printf("Đã bắt đầu booking %s cho chỗ đỗ %s (rate %.0f ADA/phút)", created.ID, slotID, created.RatePerMinute)

	return &domain.StartBookingResponse{
		BookingID:            created.ID,
		SlotID:               created.SlotID,
		StartTime:            created.StartTime,
		RatePerMinute:        created.RatePerMinute,
		CurrentWalletBalance: currentBalance,
		Status:               created.Status,
	}, created, nil
}

// ChargeWallet là nơi duy nhất thực thi bất biến số-dư-không-âm: nếu trừ sẽ
// âm thì số dư giữ nguyên (từ chối cả khoản, không trừ một phần) và trạng
// thái trở thành stopped_insufficient_balance.
func (s *BookingService) ChargeWallet(ctx context.Context, bookingID string, amount float64, currentBalance float64) (*domain.ChargeWalletResponse, error) {
	time.Sleep(s.cfg.ChargeWalletDelay) // Mô phỏng độ trễ mạng

	newBalance := currentBalance - amount
	if newBalance < 0 {
		return &domain.ChargeWalletResponse{
			WalletBalance: currentBalance, // Không trừ nếu không đủ số dư
			BookingStatus: domain.BookingStoppedInsufficientBalance,
		}, nil
	}

	return &domain.ChargeWalletResponse{
		WalletBalance: newBalance,
		BookingStatus: domain.BookingActive,
	}, nil
}

// EndBooking tính tổng kết cho toàn bộ thời gian đỗ: số phút lấy floor của
// (now - startTime)/60s. total_amount_charged chỉ là báo cáo tổng kết - ví
// không bị trừ lại ở đây vì các chu kỳ trừ định kỳ đã là nguồn ghi nợ duy
// nhất.
func (s *BookingService) EndBooking(ctx context.Context, bookingID string, startTime time.Time, currentBalance float64, ratePerMinute float64) (*domain.EndBookingResponse, error) {
	time.Sleep(s.cfg.EndBookingDelay) // Mô phỏng độ trễ mạng

	totalMinutes := int64(s.clk.Now().Sub(startTime) / time.Minute)
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	totalCharged := float64(totalMinutes) * ratePerMinute

	return &domain.EndBookingResponse{
		BookingID:          bookingID,
		TotalTimeMinutes:   totalMinutes,
		TotalAmountCharged: totalCharged,
		FinalWalletBalance: currentBalance,
		Status:             domain.BookingCompleted,
	}, nil
}
