package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"

	"park_wallet/internal/clock"
	"park_wallet/internal/config"
	"park_wallet/internal/domain"
	"park_wallet/internal/observability"
	"park_wallet/internal/repository"
)

var ErrNoSlotSelected = errors.New("chưa chọn chỗ đỗ nào")
var ErrInvalidDuration = errors.New("thời lượng đỗ không hợp lệ")

// Các lựa chọn thời lượng của panel ước tính giá.
var estimateDurations = []int{1, 2, 4, 24}

// DashboardService sở hữu application state: catalog chỗ đỗ, slot đang chọn,
// ví, booking đang chạy. Mọi mutation đi qua các thao tác được định nghĩa ở
// đây (select/confirm/end/topup) - không có ghi trực tiếp từ bên ngoài, giữ
// bất biến một-người-ghi duy nhất.
type DashboardService struct {
	slotRepo    repository.ParkingSlotRepository
	bookingRepo repository.BookingRepository
	walletRepo  repository.WalletRepository
	catalog     *SlotCatalogService
	bookingSvc  *BookingService
	billing     *BillingEngine
	notifier    Notifier
	clk         clock.Clock
	cfg         *config.Config

	mu             sync.Mutex
	selectedSlotID string
	// Trạng thái trước khi chọn, để slot cũ quay về đúng available/suggested
	// khi user chọn slot khác.
	selectedPrevStatus domain.SlotStatus
}

func NewDashboardService(
	slotRepo repository.ParkingSlotRepository,
	bookingRepo repository.BookingRepository,
	walletRepo repository.WalletRepository,
	catalog *SlotCatalogService,
	bookingSvc *BookingService,
	billing *BillingEngine,
	notifier Notifier,
	clk clock.Clock,
	cfg *config.Config,
) *DashboardService {
	return &DashboardService{
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		walletRepo:  walletRepo,
		catalog:     catalog,
		bookingSvc:  bookingSvc,
		billing:     billing,
		notifier:    notifier,
		clk:         clk,
		cfg:         cfg,
	}
}

// Seed sinh catalog, đánh dấu đề xuất, đặt số dư ban đầu và vài giao dịch
// mẫu. Gọi một lần khi khởi động.
func (s *DashboardService) Seed(ctx context.Context) error {
	if _, err := s.catalog.Generate(ctx); err != nil {
		return err
	}
	if _, err := s.catalog.SuggestNearest(ctx); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("Không còn chỗ đỗ trống để đề xuất.")
		} else {
			return err
		}
	}

	if err := s.walletRepo.SetBalance(ctx, s.cfg.InitialBalance); err != nil {
		return fmt.Errorf("lỗi đặt số dư ban đầu: %w", err)
	}
	observability.WalletBalance.Set(s.cfg.InitialBalance)

	// Lịch sử giao dịch mẫu, giống dữ liệu demo của frontend
	now := s.clk.Now()
	samples := []domain.WalletTransaction{
		{
			ID:          "TXN-" + uuid.NewString(),
			Date:        now.AddDate(0, 0, -2),
			Amount:      -100,
			Type:        domain.TransactionDebit,
			Description: "Parking - Slot A5 (2 giờ)",
			Status:      domain.TransactionCompleted,
		},
		{
			ID:          "TXN-" + uuid.NewString(),
			Date:        now.AddDate(0, 0, -5),
			Amount:      500,
			Type:        domain.TransactionCredit,
			Description: "Nạp tiền vào ví",
			Status:      domain.TransactionCompleted,
		},
	}
	for i := range samples {
		if err := s.walletRepo.AppendTransaction(ctx, &samples[i]); err != nil {
			return fmt.Errorf("lỗi ghi giao dịch mẫu: %w", err)
		}
	}
	return nil
}

// SelectSlot đánh dấu một slot là "selected". Tối đa một slot được chọn tại
// một thời điểm: slot đang chọn trước đó quay về trạng thái cũ của nó.
func (s *DashboardService) SelectSlot(ctx context.Context, slotID string) (*domain.ParkingSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.slotRepo.FindByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status == domain.SlotOccupied {
		return nil, repository.ErrSlotUnavailable
	}
	if slot.Status == domain.SlotSelected {
		return slot, nil
	}

	if s.selectedSlotID != "" && s.selectedSlotID != slotID {
		if err := s.slotRepo.UpdateStatus(ctx, s.selectedSlotID, s.selectedPrevStatus); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lỗi bỏ chọn slot %s: %w", s.selectedSlotID, err)
		}
	}

	s.selectedPrevStatus = slot.Status // available hoặc suggested
	if err := s.slotRepo.UpdateStatus(ctx, slotID, domain.SlotSelected); err != nil {
		return nil, err
	}
	s.selectedSlotID = slotID
	slot.Status = domain.SlotSelected
	log.Printf("Đã chọn chỗ đỗ %s", slotID)
	return slot, nil
}

// ClearSelection bỏ chọn slot hiện tại (nếu có), trả nó về trạng thái cũ.
func (s *DashboardService) ClearSelection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearSelectionLocked(ctx)
}

func (s *DashboardService) clearSelectionLocked(ctx context.Context) error {
	if s.selectedSlotID == "" {
		return nil
	}
	if err := s.slotRepo.UpdateStatus(ctx, s.selectedSlotID, s.selectedPrevStatus); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	s.selectedSlotID = ""
	s.selectedPrevStatus = ""
	return nil
}

// ConfirmBooking bắt đầu booking trên slot đang chọn: gọi backend giả lập,
// đánh dấu slot occupied, khởi động billing engine và xóa lựa chọn.
func (s *DashboardService) ConfirmBooking(ctx context.Context) (*domain.StartBookingResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedSlotID == "" {
		return nil, ErrNoSlotSelected
	}
	if existing, err := s.bookingRepo.FindActive(ctx); err == nil && existing != nil {
		return nil, repository.ErrBookingAlreadyActive
	} else if err != nil && !errors.Is(err, repository.ErrNoActiveBooking) {
		return nil, fmt.Errorf("lỗi kiểm tra booking đang hoạt động: %w", err)
	}

	slot, err := s.slotRepo.FindByID(ctx, s.selectedSlotID)
	if err != nil {
		return nil, err
	}
	balance, err := s.walletRepo.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc số dư ví: %w", err)
	}

	resp, booking, err := s.bookingSvc.StartBooking(ctx, slot.ID, slot.ID, slot.Floor, balance)
	if err != nil {
		// Không có optimistic mutation nào trước lời gọi, nên không cần rollback
		return nil, err
	}

	if err := s.slotRepo.UpdateStatus(ctx, slot.ID, domain.SlotOccupied); err != nil {
		log.Printf("Lỗi đánh dấu slot %s là occupied: %v", slot.ID, err)
	}
	s.selectedSlotID = ""
	s.selectedPrevStatus = ""

	if err := s.billing.Start(*booking); err != nil {
		log.Printf("Lỗi khởi động billing engine cho booking %s: %v", booking.ID, err)
	}

	observability.BookingsStarted.Inc()
	s.broadcast(domain.EventBookingStarted, booking.ID, booking.SlotID, balance, 0,
		fmt.Sprintf("Slot %s - Trừ %.0f ADA/phút", slot.ID, resp.RatePerMinute))
	return resp, nil
}

// EndActiveBooking kết thúc booking đang chạy: dừng cả hai ticker trước (hủy
// vô điều kiện trên mọi đường thoát), gọi backend giả lập để tổng kết, trả
// slot về available và lưu booking vào lịch sử.
func (s *DashboardService) EndActiveBooking(ctx context.Context) (*domain.EndBookingResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.bookingRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	s.billing.Stop()

	balance, err := s.walletRepo.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc số dư ví: %w", err)
	}

	resp, err := s.bookingSvc.EndBooking(ctx, active.ID, active.StartTime, balance, active.RatePerMinute)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	active.EndTime = null.TimeFrom(now)
	active.DurationMinutes = null.IntFrom(resp.TotalTimeMinutes)
	active.TotalAmount = null.FloatFrom(resp.TotalAmountCharged)
	active.Status = domain.BookingCompleted
	active.UpdatedAt = now
	if _, err := s.bookingRepo.Update(ctx, active); err != nil {
		log.Printf("Lỗi lưu booking %s vào lịch sử: %v", active.ID, err)
	}

	if err := s.slotRepo.UpdateStatus(ctx, active.SlotID, domain.SlotAvailable); err != nil {
		log.Printf("Lỗi trả slot %s về available: %v", active.SlotID, err)
	} else {
		log.Printf("Đã trả chỗ đỗ %s về trạng thái trống.", active.SlotID)
	}

	observability.BookingsEnded.Inc()
	s.broadcast(domain.EventBookingEnded, active.ID, active.SlotID, balance, resp.TotalAmountCharged,
		fmt.Sprintf("Tổng cộng: %.0f ADA cho %d phút", resp.TotalAmountCharged, resp.TotalTimeMinutes))
	return resp, nil
}

// TopUp cộng thêm một khoản cố định vào ví, không có trần. Luôn khả dụng, kể
// cả khi booking đã bị dừng vì thiếu số dư (nạp rồi đặt lại).
func (s *DashboardService) TopUp(ctx context.Context) (*domain.TopUpResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Credit là delta nguyên tử: một chu kỳ trừ tiền đang bay không thể ghi
	// đè khoản nạp này bằng số dư nó đã đọc trước đó.
	newBalance, err := s.walletRepo.Credit(ctx, s.cfg.TopUpAmount)
	if err != nil {
		return nil, fmt.Errorf("lỗi nạp tiền vào ví: %w", err)
	}

	txn := &domain.WalletTransaction{
		ID:          "TXN-" + uuid.NewString(),
		Date:        s.clk.Now(),
		Amount:      s.cfg.TopUpAmount,
		Type:        domain.TransactionCredit,
		Description: "Nạp tiền vào ví",
		Status:      domain.TransactionCompleted,
	}
	if err := s.walletRepo.AppendTransaction(ctx, txn); err != nil {
		log.Printf("Lỗi ghi giao dịch nạp tiền: %v", err)
	}

	observability.TopUpsTotal.Inc()
	observability.WalletBalance.Set(newBalance)
	log.Printf("Đã nạp %.0f ADA vào ví, số dư mới: %.0f ADA", s.cfg.TopUpAmount, newBalance)
	s.broadcast(domain.EventWalletToppedUp, "", "", newBalance, s.cfg.TopUpAmount,
		fmt.Sprintf("Đã nạp %.0f ADA vào ví của bạn", s.cfg.TopUpAmount))
	return &domain.TopUpResponse{Balance: newBalance, AmountAdded: s.cfg.TopUpAmount}, nil
}

// Overview trả về toàn bộ trạng thái mà dashboard cần render.
func (s *DashboardService) Overview(ctx context.Context) (*domain.SlotOverviewDTO, error) {
	slots, err := s.slotRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	overview := &domain.SlotOverviewDTO{
		Slots:  slots,
		Layout: s.catalog.Layout(),
	}
	if suggested, err := s.catalog.Suggested(ctx); err == nil {
		overview.SuggestedSlot = suggested
	}

	s.mu.Lock()
	selectedID := s.selectedSlotID
	s.mu.Unlock()
	if selectedID != "" {
		if selected, err := s.slotRepo.FindByID(ctx, selectedID); err == nil {
			overview.SelectedSlot = selected
		}
	}
	return overview, nil
}

func (s *DashboardService) WalletBalance(ctx context.Context) (*domain.WalletResponse, error) {
	balance, err := s.walletRepo.Balance(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.WalletResponse{
		Balance:    balance,
		LowBalance: balance < s.cfg.LowBalanceThreshold,
	}, nil
}

func (s *DashboardService) Transactions(ctx context.Context) ([]domain.WalletTransaction, error) {
	return s.walletRepo.Transactions(ctx)
}

func (s *DashboardService) BookingHistory(ctx context.Context) ([]domain.Booking, error) {
	return s.bookingRepo.FindAll(ctx)
}

// ActiveBookingSnapshot trả về trạng thái hiển thị của booking đang chạy.
func (s *DashboardService) ActiveBookingSnapshot(ctx context.Context) (*domain.ActiveBookingSnapshot, error) {
	snap, ok := s.billing.Snapshot()
	if !ok {
		return nil, repository.ErrNoActiveBooking
	}
	return &snap, nil
}

// EstimatePrice tính chi phí ước lượng một lần theo giá giờ của slot. Đây là
// panel tham khảo độc lập; billing thực tế luôn dùng rate cố định theo phút.
func (s *DashboardService) EstimatePrice(ctx context.Context, dto domain.PriceEstimateDTO) (*domain.PriceEstimateResponse, error) {
	valid := false
	for _, d := range estimateDurations {
		if dto.DurationHours == d {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%w: %d giờ (cho phép: %v)", ErrInvalidDuration, dto.DurationHours, estimateDurations)
	}

	slot, err := s.slotRepo.FindByID(ctx, dto.SlotID)
	if err != nil {
		return nil, err
	}
	return &domain.PriceEstimateResponse{
		SlotID:        slot.ID,
		Floor:         slot.Floor,
		PricePerHour:  slot.PricePerHour,
		DurationHours: dto.DurationHours,
		TotalAmount:   slot.PricePerHour * float64(dto.DurationHours),
	}, nil
}

func (s *DashboardService) broadcast(eventType domain.BookingEventType, bookingID, slotID string, balance, amount float64, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastBookingEvent(domain.BookingEventNotification{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		BookingID:     bookingID,
		SlotID:        slotID,
		WalletBalance: balance,
		Amount:        amount,
		Message:       message,
		Timestamp:     s.clk.Now(),
	})
}
