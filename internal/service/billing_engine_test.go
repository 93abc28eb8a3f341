package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"park_wallet/internal/clock"
	"park_wallet/internal/domain"
	"park_wallet/internal/repository/memory"
)

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.BookingEventNotification
}

func (f *fakeNotifier) BroadcastBookingEvent(event domain.BookingEventNotification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) countByType(eventType domain.BookingEventType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

type failingCharger struct{}

func (failingCharger) ChargeWallet(ctx context.Context, bookingID string, amount float64, currentBalance float64) (*domain.ChargeWalletResponse, error) {
	return nil, errors.New("mô phỏng lỗi transport")
}

// waitFor polls cond until it holds or the timeout passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

type engineFixture struct {
	engine      *BillingEngine
	bookingRepo *memory.BookingRepo
	walletRepo  *memory.WalletRepo
	notifier    *fakeNotifier
	booking     domain.Booking
}

func newEngineFixture(t *testing.T, balance float64, charger Charger) *engineFixture {
	t.Helper()
	cfg := testConfig()
	clk := clock.NewSystem()
	bookingRepo := memory.NewBookingRepo()
	walletRepo := memory.NewWalletRepo(balance)
	notifier := &fakeNotifier{}

	if charger == nil {
		charger = NewBookingService(bookingRepo, clk, cfg)
	}
	engine := NewBillingEngine(charger, bookingRepo, walletRepo, notifier, clk, cfg)

	booking := domain.Booking{
		ID:            "BK1",
		SlotID:        "A5",
		SlotLabel:     "A5",
		Floor:         "Basement 1",
		StartTime:     clk.Now(),
		RatePerMinute: cfg.RatePerMinute,
		Status:        domain.BookingActive,
	}
	if _, err := bookingRepo.Create(context.Background(), &booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return &engineFixture{engine: engine, bookingRepo: bookingRepo, walletRepo: walletRepo, notifier: notifier, booking: booking}
}

func (f *engineFixture) balance(t *testing.T) float64 {
	t.Helper()
	balance, err := f.walletRepo.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

func TestBillingEngineInsufficientBalanceHalts(t *testing.T) {
	// Số dư 7, rate 2: ba chu kỳ thành công (5, 3, 1) rồi chu kỳ thứ tư bị
	// từ chối (1-2 < 0) - số dư giữ nguyên 1 và engine dừng hẳn.
	f := newEngineFixture(t, 7, nil)
	if err := f.engine.Start(f.booking); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer f.engine.Stop()

	if !waitFor(t, 2*time.Second, func() bool {
		return f.engine.Status() == domain.BookingStoppedInsufficientBalance
	}) {
		t.Fatalf("engine never reached stopped_insufficient_balance")
	}

	if got := f.balance(t); got != 1 {
		t.Fatalf("expected balance 1 after halt, got %v", got)
	}

	// Idempotent halt: chờ thêm vài chu kỳ, không được trừ thêm lần nào
	time.Sleep(50 * time.Millisecond)
	if got := f.balance(t); got != 1 {
		t.Fatalf("balance changed after halt: %v", got)
	}

	stored, err := f.bookingRepo.FindByID(context.Background(), f.booking.ID)
	if err != nil {
		t.Fatalf("find booking: %v", err)
	}
	if stored.Status != domain.BookingStoppedInsufficientBalance {
		t.Fatalf("expected stored status stopped_insufficient_balance, got %s", stored.Status)
	}

	if n := f.notifier.countByType(domain.EventBookingStopped); n != 1 {
		t.Fatalf("expected exactly one booking_stopped event, got %d", n)
	}

	txns, err := f.walletRepo.Transactions(context.Background())
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected 3 debit transactions, got %d", len(txns))
	}
	for _, txn := range txns {
		if txn.Type != domain.TransactionDebit || txn.Amount != -2 {
			t.Fatalf("unexpected transaction: %+v", txn)
		}
	}
}

func TestBillingEngineTransientFailureSkipsCycle(t *testing.T) {
	f := newEngineFixture(t, 350, failingCharger{})
	if err := f.engine.Start(f.booking); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer f.engine.Stop()

	// Nhiều chu kỳ lỗi liên tiếp: trạng thái vẫn active, số dư không đổi
	time.Sleep(60 * time.Millisecond)
	if f.engine.Status() != domain.BookingActive {
		t.Fatalf("transient failures must not change status, got %s", f.engine.Status())
	}
	if got := f.balance(t); got != 350 {
		t.Fatalf("transient failures must not touch the balance, got %v", got)
	}
	if n := f.notifier.countByType(domain.EventBookingStopped); n != 0 {
		t.Fatalf("no stop event expected, got %d", n)
	}
}

func TestBillingEngineLowBalanceAdvisory(t *testing.T) {
	// 51 - 2 = 49 < 50: cảnh báo tư vấn được phát nhưng trạng thái vẫn active
	f := newEngineFixture(t, 51, nil)
	if err := f.engine.Start(f.booking); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer f.engine.Stop()

	if !waitFor(t, 2*time.Second, func() bool {
		return f.notifier.countByType(domain.EventLowBalance) >= 1
	}) {
		t.Fatalf("low_balance advisory never emitted")
	}
	if f.engine.Status() != domain.BookingActive {
		t.Fatalf("low balance advisory must not change status, got %s", f.engine.Status())
	}
}

func TestBillingEngineStopCancelsTickers(t *testing.T) {
	f := newEngineFixture(t, 350, nil)
	if err := f.engine.Start(f.booking); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, ok := f.engine.Snapshot(); !ok {
		t.Fatalf("expected snapshot while running")
	}

	f.engine.Stop()
	if _, ok := f.engine.Snapshot(); ok {
		t.Fatalf("expected snapshot cleared after stop")
	}

	// Sau teardown không còn chu kỳ trừ tiền nào chạy
	before := f.balance(t)
	time.Sleep(50 * time.Millisecond)
	if after := f.balance(t); after != before {
		t.Fatalf("charges applied after stop: %v -> %v", before, after)
	}

	// Stop lần nữa phải an toàn
	f.engine.Stop()
}

func TestBillingEngineStartTwice(t *testing.T) {
	f := newEngineFixture(t, 350, nil)
	if err := f.engine.Start(f.booking); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer f.engine.Stop()

	if err := f.engine.Start(f.booking); !errors.Is(err, ErrBillingAlreadyRunning) {
		t.Fatalf("expected ErrBillingAlreadyRunning, got %v", err)
	}
}

func TestBillingEngineSnapshotElapsed(t *testing.T) {
	cfg := testConfig()
	cfg.ChargeInterval = time.Hour // Không trừ tiền trong test này
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(start.Add(125 * time.Second))
	bookingRepo := memory.NewBookingRepo()
	walletRepo := memory.NewWalletRepo(344)
	engine := NewBillingEngine(NewBookingService(bookingRepo, clk, cfg), bookingRepo, walletRepo, &fakeNotifier{}, clk, cfg)

	booking := domain.Booking{
		ID:            "BK1",
		SlotID:        "A5",
		SlotLabel:     "A5",
		StartTime:     start,
		RatePerMinute: 2,
		Status:        domain.BookingActive,
	}
	if _, err := bookingRepo.Create(context.Background(), &booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	if err := engine.Start(booking); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer engine.Stop()

	snap, ok := engine.Snapshot()
	if !ok {
		t.Fatalf("expected snapshot")
	}
	if snap.ElapsedSeconds != 125 {
		t.Fatalf("expected 125 elapsed seconds, got %d", snap.ElapsedSeconds)
	}
	if snap.TimeParked != "2m 5s" {
		t.Fatalf("expected '2m 5s', got %q", snap.TimeParked)
	}
	// 125s đỗ = 2 phút tròn x 2 ADA
	if snap.EstimatedCost != 4 {
		t.Fatalf("expected estimated cost 4, got %v", snap.EstimatedCost)
	}
	if snap.WalletBalance != 344 {
		t.Fatalf("expected balance 344 in snapshot, got %v", snap.WalletBalance)
	}
	if snap.LowBalance {
		t.Fatalf("344 is above the threshold, low_balance must be false")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "0m 0s"},
		{59, "0m 59s"},
		{125, "2m 5s"},
		{3600, "1h 0m 0s"},
		{3725, "1h 2m 5s"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.seconds); got != tc.want {
			t.Fatalf("formatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
