package memory

import (
	"context"
	"sort"
	"sync"

	"park_wallet/internal/domain"
	"park_wallet/internal/repository"
)

// ParkingSlotRepo giữ toàn bộ catalog trong bộ nhớ cho vòng đời của process.
// Không có persistence - backend được mô phỏng trong process theo thiết kế.
type ParkingSlotRepo struct {
	mu    sync.RWMutex
	slots map[string]domain.ParkingSlot
	order []string // Giữ thứ tự sinh ra để FindAll trả về ổn định
}

func NewParkingSlotRepo() *ParkingSlotRepo {
	return &ParkingSlotRepo{slots: make(map[string]domain.ParkingSlot)}
}

func (r *ParkingSlotRepo) SaveAll(ctx context.Context, slots []domain.ParkingSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots = make(map[string]domain.ParkingSlot, len(slots))
	r.order = make([]string, 0, len(slots))
	for _, s := range slots {
		r.slots[s.ID] = s
		r.order = append(r.order, s.ID)
	}
	return nil
}

func (r *ParkingSlotRepo) FindByID(ctx context.Context, id string) (*domain.ParkingSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &slot, nil
}

func (r *ParkingSlotRepo) FindAll(ctx context.Context) ([]domain.ParkingSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ParkingSlot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.slots[id])
	}
	return out, nil
}

func (r *ParkingSlotRepo) FindByStatus(ctx context.Context, status domain.SlotStatus) ([]domain.ParkingSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ParkingSlot
	for _, id := range r.order {
		if r.slots[id].Status == status {
			out = append(out, r.slots[id])
		}
	}
	// Thứ tự ổn định theo ID để tie-break khi chọn slot gần nhất là xác định
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ParkingSlotRepo) UpdateStatus(ctx context.Context, id string, status domain.SlotStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[id]
	if !ok {
		return repository.ErrNotFound
	}
	slot.Status = status
	r.slots[id] = slot
	return nil
}
