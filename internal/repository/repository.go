package repository

import (
	"context"
	"errors"

	"park_wallet/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")
var ErrSlotUnavailable = errors.New("chỗ đỗ không khả dụng để chọn")
var ErrNoActiveBooking = errors.New("không có booking đang hoạt động")
var ErrBookingAlreadyActive = errors.New("đã có booking đang hoạt động")

type ParkingSlotRepository interface {
	SaveAll(ctx context.Context, slots []domain.ParkingSlot) error
	FindByID(ctx context.Context, id string) (*domain.ParkingSlot, error)
	FindAll(ctx context.Context) ([]domain.ParkingSlot, error)
	FindByStatus(ctx context.Context, status domain.SlotStatus) ([]domain.ParkingSlot, error)
	UpdateStatus(ctx context.Context, id string, status domain.SlotStatus) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	FindByID(ctx context.Context, id string) (*domain.Booking, error)
	// FindActive trả về booking active duy nhất phía client (bất biến: tối đa
	// một booking active tại một thời điểm).
	FindActive(ctx context.Context) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	FindAll(ctx context.Context) ([]domain.Booking, error)
}

type WalletRepository interface {
	Balance(ctx context.Context) (float64, error)
	// SetBalance ghi đè số dư; chỉ dành cho seed lúc khởi động. Mọi thay đổi
	// lúc chạy phải đi qua Credit/Debit để hai writer (dashboard top-up và
	// billing engine) không ghi đè lẫn nhau.
	SetBalance(ctx context.Context, balance float64) error
	// Credit cộng amount vào số dư, trả về số dư mới.
	Credit(ctx context.Context, amount float64) (float64, error)
	// Debit trừ amount nếu số dư sau khi trừ không âm; bất biến được kiểm tra
	// lại tại thời điểm ghi dưới lock của repo, không phải tại thời điểm caller
	// đọc số dư. ok=false nghĩa là từ chối cả khoản, số dư giữ nguyên.
	Debit(ctx context.Context, amount float64) (float64, bool, error)
	AppendTransaction(ctx context.Context, txn *domain.WalletTransaction) error
	Transactions(ctx context.Context) ([]domain.WalletTransaction, error)
}
