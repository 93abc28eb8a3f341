package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"

	"park_wallet/internal/clock"
	"park_wallet/internal/config"
	"park_wallet/internal/domain"
	"park_wallet/internal/observability"
	"park_wallet/internal/repository"
)

var ErrBillingAlreadyRunning = errors.New("đã có chu trình tính phí đang chạy")

// Charger trừu tượng hóa thao tác trừ tiền của backend giả lập để test engine
// với charger giả (mô phỏng lỗi tạm thời, v.v.).
type Charger interface {
	ChargeWallet(ctx context.Context, bookingID string, amount float64, currentBalance float64) (*domain.ChargeWalletResponse, error)
}

// Notifier phát sự kiện booking tới các client đang kết nối (WebSocket).
type Notifier interface {
	BroadcastBookingEvent(event domain.BookingEventNotification)
}

// BillingEngine là máy trạng thái tính phí cho booking đang chạy:
//
//	active --(charge bị từ chối)--> stopped_insufficient_balance (terminal)
//
// Hai ticker độc lập cho mỗi booking: chu kỳ trừ tiền (mặc định 60s) và chu
// kỳ cập nhật thời gian đã đỗ (mặc định 1s). Cả hai bị hủy vô điều kiện qua
// context khi booking kết thúc hoặc engine dừng - không được để leak ticker.
// Engine là chủ sở hữu duy nhất của việc áp dụng charge lên ví; mỗi khoản trừ
// được ghi dưới dạng delta nguyên tử nên không xung đột với top-up đồng thời.
type BillingEngine struct {
	charger     Charger
	bookingRepo repository.BookingRepository
	walletRepo  repository.WalletRepository
	notifier    Notifier
	clk         clock.Clock
	cfg         *config.Config

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	status   domain.BookingStatus
	snapshot domain.ActiveBookingSnapshot
	hasSnap  bool
}

func NewBillingEngine(
	charger Charger,
	bookingRepo repository.BookingRepository,
	walletRepo repository.WalletRepository,
	notifier Notifier,
	clk clock.Clock,
	cfg *config.Config,
) *BillingEngine {
	return &BillingEngine{
		charger:     charger,
		bookingRepo: bookingRepo,
		walletRepo:  walletRepo,
		notifier:    notifier,
		clk:         clk,
		cfg:         cfg,
	}
}

// Start khởi động hai ticker cho booking. Chỉ một booking được tính phí tại
// một thời điểm (bất biến: tối đa một booking active phía client).
func (e *BillingEngine) Start(booking domain.Booking) error {
	e.mu.Lock()
	if e.cancel != nil {
		e.mu.Unlock()
		return ErrBillingAlreadyRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.status = domain.BookingActive
	e.mu.Unlock()

	e.refreshSnapshot(ctx, booking)

	e.wg.Add(2)
	go e.runChargeCycle(ctx, booking)
	go e.runElapsedTicker(ctx, booking)

	observability.ActiveBookings.Set(1)
	log.Printf("Billing engine: bắt đầu chu trình tính phí cho booking %s (chu kỳ %v)", booking.ID, e.cfg.ChargeInterval)
	return nil
}

// Stop hủy cả hai ticker và chờ chúng thoát. An toàn khi gọi nhiều lần.
func (e *BillingEngine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	e.wg.Wait()

	e.mu.Lock()
	e.hasSnap = false
	e.mu.Unlock()
	observability.ActiveBookings.Set(0)
	log.Printf("Billing engine: đã dừng chu trình tính phí")
}

// Snapshot trả về trạng thái hiển thị hiện tại của booking đang tính phí.
func (e *BillingEngine) Snapshot() (domain.ActiveBookingSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot, e.hasSnap
}

func (e *BillingEngine) Status() domain.BookingStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *BillingEngine) isActive() bool {
	return e.Status() == domain.BookingActive
}

func (e *BillingEngine) runChargeCycle(ctx context.Context, booking domain.Booking) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.ChargeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.isActive() {
				// Đã dừng vì thiếu số dư: không trừ thêm lần nào nữa
				return
			}
			e.applyChargeTick(ctx, booking)
			if !e.isActive() {
				return
			}
		}
	}
}

func (e *BillingEngine) applyChargeTick(ctx context.Context, booking domain.Booking) {
	balance, err := e.walletRepo.Balance(ctx)
	if err != nil {
		log.Printf("Billing engine: lỗi đọc số dư ví: %v. Bỏ qua chu kỳ này.", err)
		return
	}

	if _, err := e.charger.ChargeWallet(ctx, booking.ID, booking.RatePerMinute, balance); err != nil {
		// Lỗi tạm thời kiểu transport: log và chờ chu kỳ kế tiếp, không
		// retry, không đổi trạng thái.
		log.Printf("Billing engine: lỗi gọi charge wallet cho booking %s: %v. Bỏ qua chu kỳ này.", booking.ID, err)
		observability.ChargeFailures.Inc()
		return
	}

	// Áp dụng charge như một delta nguyên tử: Debit kiểm tra lại bất biến
	// không-âm tại thời điểm ghi dưới lock của repo. Top-up đến trong lúc lời
	// gọi charge đang bay vì thế không bị ghi đè bởi số dư đọc trước đó, và
	// một booking vừa được nạp tiền không bị dừng oan.
	newBalance, ok, err := e.walletRepo.Debit(ctx, booking.RatePerMinute)
	if err != nil {
		log.Printf("Billing engine: lỗi trừ tiền ví: %v", err)
		return
	}
	if !ok {
		e.haltInsufficientBalance(ctx, booking, newBalance)
		return
	}

	e.appendDebitTransaction(ctx, booking)
	observability.ChargesApplied.Inc()
	observability.WalletBalance.Set(newBalance)
	log.Printf("Billing engine: đã trừ %.0f ADA cho booking %s, số dư còn %.0f ADA",
		booking.RatePerMinute, booking.ID, newBalance)

	e.broadcast(domain.EventChargeApplied, booking, newBalance, booking.RatePerMinute, "")

	// Cảnh báo số dư thấp: chỉ mang tính tư vấn, không đổi trạng thái
	if newBalance < e.cfg.LowBalanceThreshold && newBalance+booking.RatePerMinute >= e.cfg.LowBalanceThreshold {
		e.broadcast(domain.EventLowBalance, booking, newBalance, 0,
			"Số dư ví của bạn đang thấp. Vui lòng nạp thêm để tiếp tục đỗ xe.")
	}
}

func (e *BillingEngine) haltInsufficientBalance(ctx context.Context, booking domain.Booking, balance float64) {
	e.mu.Lock()
	e.status = domain.BookingStoppedInsufficientBalance
	e.mu.Unlock()

	stored, err := e.bookingRepo.FindByID(ctx, booking.ID)
	if err != nil {
		log.Printf("Billing engine: lỗi tìm booking %s để cập nhật trạng thái: %v", booking.ID, err)
	} else {
		stored.Status = domain.BookingStoppedInsufficientBalance
		stored.UpdatedAt = e.clk.Now()
		if _, err := e.bookingRepo.Update(ctx, stored); err != nil {
			log.Printf("Billing engine: lỗi cập nhật trạng thái booking %s: %v", booking.ID, err)
		}
	}

	observability.ChargesRejected.Inc()
	observability.BookingsStopped.Inc()
	log.Printf("Billing engine: booking %s bị dừng do không đủ số dư (còn %.0f ADA)", booking.ID, balance)
	e.broadcast(domain.EventBookingStopped, booking, balance, 0,
		"Booking của bạn đã bị dừng do số dư ví không đủ.")
}

func (e *BillingEngine) appendDebitTransaction(ctx context.Context, booking domain.Booking) {
	txn := &domain.WalletTransaction{
		ID:          "TXN-" + uuid.NewString(),
		Date:        e.clk.Now(),
		Amount:      -booking.RatePerMinute,
		Type:        domain.TransactionDebit,
		Description: fmt.Sprintf("Parking - Slot %s (phí theo phút)", booking.SlotLabel),
		Status:      domain.TransactionCompleted,
		BookingID:   null.StringFrom(booking.ID),
	}
	if err := e.walletRepo.AppendTransaction(ctx, txn); err != nil {
		log.Printf("Billing engine: lỗi ghi lịch sử giao dịch: %v", err)
	}
}

func (e *BillingEngine) runElapsedTicker(ctx context.Context, booking domain.Booking) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.ElapsedTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.refreshSnapshot(ctx, booking)
		}
	}
}

// refreshSnapshot tính lại phần hiển thị từ now - startTime; hoàn toàn độc
// lập với chu kỳ trừ tiền và không ảnh hưởng gì đến billing.
func (e *BillingEngine) refreshSnapshot(ctx context.Context, booking domain.Booking) {
	elapsed := int64(e.clk.Now().Sub(booking.StartTime) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	balance, err := e.walletRepo.Balance(ctx)
	if err != nil {
		log.Printf("Billing engine: lỗi đọc số dư ví cho snapshot: %v", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	booking.Status = e.status
	e.snapshot = domain.ActiveBookingSnapshot{
		Booking:        booking,
		ElapsedSeconds: elapsed,
		TimeParked:     formatDuration(elapsed),
		EstimatedCost:  float64(elapsed/60) * booking.RatePerMinute,
		WalletBalance:  balance,
		LowBalance:     balance < e.cfg.LowBalanceThreshold && e.status == domain.BookingActive,
		Status:         e.status,
	}
	e.hasSnap = true
}

func (e *BillingEngine) broadcast(eventType domain.BookingEventType, booking domain.Booking, balance float64, amount float64, message string) {
	if e.notifier == nil {
		return
	}
	e.notifier.BroadcastBookingEvent(domain.BookingEventNotification{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		BookingID:     booking.ID,
		SlotID:        booking.SlotID,
		WalletBalance: balance,
		Amount:        amount,
		Message:       message,
		Timestamp:     e.clk.Now(),
	})
}

func formatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
