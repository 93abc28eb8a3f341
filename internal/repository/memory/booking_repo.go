package memory

import (
	"context"
	"sync"

	"park_wallet/internal/domain"
	"park_wallet/internal/repository"
)

type BookingRepo struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
	order    []string
}

func NewBookingRepo() *BookingRepo {
	return &BookingRepo{bookings: make(map[string]domain.Booking)}
}

func (r *BookingRepo) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[booking.ID]; ok {
		return nil, repository.ErrDuplicateEntry
	}
	r.bookings[booking.ID] = *booking
	r.order = append(r.order, booking.ID)
	created := *booking
	return &created, nil
}

func (r *BookingRepo) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &booking, nil
}

func (r *BookingRepo) FindActive(ctx context.Context) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Duyệt từ mới về cũ: nếu vì lý do nào đó có nhiều hơn một booking active
	// (không thể xảy ra với dashboard hiện tại), lấy cái mới nhất.
	for i := len(r.order) - 1; i >= 0; i-- {
		if b := r.bookings[r.order[i]]; b.Status == domain.BookingActive || b.Status == domain.BookingStoppedInsufficientBalance {
			booking := b
			return &booking, nil
		}
	}
	return nil, repository.ErrNoActiveBooking
}

func (r *BookingRepo) Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[booking.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	r.bookings[booking.ID] = *booking
	updated := *booking
	return &updated, nil
}

func (r *BookingRepo) FindAll(ctx context.Context) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Booking, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.bookings[id])
	}
	return out, nil
}
