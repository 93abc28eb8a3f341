package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"

	"park_wallet/internal/config"
	"park_wallet/internal/domain"
	"park_wallet/internal/repository"
)

// SlotCatalogService sinh catalog chỗ đỗ giả lập cho một tầng và đề xuất chỗ
// đỗ trống gần lối vào nhất. Catalog được sinh một lần khi khởi động.
type SlotCatalogService struct {
	slotRepo repository.ParkingSlotRepository
	cfg      *config.Config
	rng      *rand.Rand
}

func NewSlotCatalogService(slotRepo repository.ParkingSlotRepository, cfg *config.Config, seed int64) *SlotCatalogService {
	return &SlotCatalogService{
		slotRepo: slotRepo,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Generate sinh GridRows x SlotsPerRow chỗ đỗ với tình trạng chiếm chỗ ngẫu
// nhiên (xác suất OccupancyProbability). Khoảng cách tới lối vào là xác định:
// rowIndex*20 + position*5.
func (s *SlotCatalogService) Generate(ctx context.Context) ([]domain.ParkingSlot, error) {
	if s.cfg.GridRows < 1 || s.cfg.GridRows > 26 {
		return nil, fmt.Errorf("số hàng không hợp lệ: %d (phải từ 1 đến 26)", s.cfg.GridRows)
	}

	slots := make([]domain.ParkingSlot, 0, s.cfg.GridRows*s.cfg.SlotsPerRow)
	for rowIndex := 0; rowIndex < s.cfg.GridRows; rowIndex++ {
		row := string(rune('A' + rowIndex))
		for position := 1; position <= s.cfg.SlotsPerRow; position++ {
			status := domain.SlotAvailable
			if s.rng.Float64() < s.cfg.OccupancyProbability {
				status = domain.SlotOccupied
			}
			slots = append(slots, domain.ParkingSlot{
				ID:                   fmt.Sprintf("%s%d", row, position),
				Row:                  row,
				Number:               position,
				Status:               status,
				PricePerHour:         s.cfg.SlotPricePerHour,
				DistanceFromEntrance: rowIndex*20 + position*5,
				Floor:                s.cfg.FloorLabel,
			})
		}
	}

	if err := s.slotRepo.SaveAll(ctx, slots); err != nil {
		return nil, fmt.Errorf("lỗi lưu catalog chỗ đỗ: %w", err)
	}
	log.Printf("Đã sinh catalog %d chỗ đỗ (%d hàng x %d vị trí) cho tầng '%s'",
		len(slots), s.cfg.GridRows, s.cfg.SlotsPerRow, s.cfg.FloorLabel)
	return slots, nil
}

// SuggestNearest chọn chỗ đỗ available có khoảng cách nhỏ nhất (hòa thì lấy
// theo thứ tự ID) và đánh dấu "suggested". Trả về ErrNotFound nếu không còn
// chỗ trống - caller coi đây là tình huống bình thường, không phải lỗi.
func (s *SlotCatalogService) SuggestNearest(ctx context.Context) (*domain.ParkingSlot, error) {
	available, err := s.slotRepo.FindByStatus(ctx, domain.SlotAvailable)
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm chỗ đỗ trống: %w", err)
	}
	if len(available) == 0 {
		return nil, repository.ErrNotFound
	}

	sort.SliceStable(available, func(i, j int) bool {
		if available[i].DistanceFromEntrance != available[j].DistanceFromEntrance {
			return available[i].DistanceFromEntrance < available[j].DistanceFromEntrance
		}
		return available[i].ID < available[j].ID
	})
	nearest := available[0]

	if err := s.slotRepo.UpdateStatus(ctx, nearest.ID, domain.SlotSuggested); err != nil {
		return nil, fmt.Errorf("lỗi đánh dấu chỗ đỗ đề xuất: %w", err)
	}
	nearest.Status = domain.SlotSuggested
	log.Printf("Đề xuất chỗ đỗ %s (cách lối vào %dm)", nearest.ID, nearest.DistanceFromEntrance)
	return &nearest, nil
}

// Suggested trả về chỗ đỗ đang được đề xuất, nếu có.
func (s *SlotCatalogService) Suggested(ctx context.Context) (*domain.ParkingSlot, error) {
	suggested, err := s.slotRepo.FindByStatus(ctx, domain.SlotSuggested)
	if err != nil {
		return nil, err
	}
	if len(suggested) == 0 {
		return nil, repository.ErrNotFound
	}
	return &suggested[0], nil
}

func (s *SlotCatalogService) Layout() domain.SlotLayoutDTO {
	return domain.SlotLayoutDTO{
		Rows:        s.cfg.GridRows,
		SlotsPerRow: s.cfg.SlotsPerRow,
		Floor:       s.cfg.FloorLabel,
	}
}
