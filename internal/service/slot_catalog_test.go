package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"park_wallet/internal/config"
	"park_wallet/internal/domain"
	"park_wallet/internal/repository"
	"park_wallet/internal/repository/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:           "8080",
		GridRows:             5,
		SlotsPerRow:          12,
		OccupancyProbability: 0.4,
		SlotPricePerHour:     50,
		FloorLabel:           "Basement 1",
		RatePerMinute:        2,
		InitialBalance:       350,
		TopUpAmount:          500,
		LowBalanceThreshold:  50,
		ChargeInterval:       10 * time.Millisecond,
		ElapsedTickInterval:  5 * time.Millisecond,
	}
}

func TestSlotCatalogGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("generates rows x slots-per-row slots with deterministic distances", func(t *testing.T) {
		repo := memory.NewParkingSlotRepo()
		svc := NewSlotCatalogService(repo, testConfig(), 1)

		slots, err := svc.Generate(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(slots) != 60 {
			t.Fatalf("expected 60 slots, got %d", len(slots))
		}

		byID := make(map[string]domain.ParkingSlot, len(slots))
		for _, s := range slots {
			byID[s.ID] = s
		}

		a1 := byID["A1"]
		if a1.DistanceFromEntrance != 5 {
			t.Fatalf("expected A1 distance 5, got %d", a1.DistanceFromEntrance)
		}
		c7 := byID["C7"]
		if c7.DistanceFromEntrance != 2*20+7*5 {
			t.Fatalf("expected C7 distance 75, got %d", c7.DistanceFromEntrance)
		}
		e12 := byID["E12"]
		if e12.Row != "E" || e12.Number != 12 {
			t.Fatalf("expected row E number 12, got %s %d", e12.Row, e12.Number)
		}

		for _, s := range slots {
			if s.Status != domain.SlotAvailable && s.Status != domain.SlotOccupied {
				t.Fatalf("slot %s has unexpected generated status %s", s.ID, s.Status)
			}
			if s.PricePerHour != 50 {
				t.Fatalf("slot %s has price %v, expected 50", s.ID, s.PricePerHour)
			}
			if s.Floor != "Basement 1" {
				t.Fatalf("slot %s has floor %q", s.ID, s.Floor)
			}
		}
	})

	t.Run("same seed produces same occupancy", func(t *testing.T) {
		first, err := NewSlotCatalogService(memory.NewParkingSlotRepo(), testConfig(), 42).Generate(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		second, err := NewSlotCatalogService(memory.NewParkingSlotRepo(), testConfig(), 42).Generate(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for i := range first {
			if first[i].Status != second[i].Status {
				t.Fatalf("slot %s differs between runs: %s vs %s", first[i].ID, first[i].Status, second[i].Status)
			}
		}
	})

	t.Run("occupancy probability bounds", func(t *testing.T) {
		cfg := testConfig()
		cfg.OccupancyProbability = 0
		slots, err := NewSlotCatalogService(memory.NewParkingSlotRepo(), cfg, 1).Generate(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, s := range slots {
			if s.Status != domain.SlotAvailable {
				t.Fatalf("with probability 0, slot %s should be available, got %s", s.ID, s.Status)
			}
		}

		cfg.OccupancyProbability = 1
		slots, err = NewSlotCatalogService(memory.NewParkingSlotRepo(), cfg, 1).Generate(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, s := range slots {
			if s.Status != domain.SlotOccupied {
				t.Fatalf("with probability 1, slot %s should be occupied, got %s", s.ID, s.Status)
			}
		}
	})

	t.Run("rejects invalid row count", func(t *testing.T) {
		cfg := testConfig()
		cfg.GridRows = 27
		if _, err := NewSlotCatalogService(memory.NewParkingSlotRepo(), cfg, 1).Generate(ctx); err == nil {
			t.Fatalf("expected error for 27 rows")
		}
	})
}

func TestSuggestNearest(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, slots []domain.ParkingSlot) (*SlotCatalogService, repository.ParkingSlotRepository) {
		t.Helper()
		repo := memory.NewParkingSlotRepo()
		if err := repo.SaveAll(ctx, slots); err != nil {
			t.Fatalf("seed: %v", err)
		}
		return NewSlotCatalogService(repo, testConfig(), 1), repo
	}

	t.Run("picks minimum distance among available only", func(t *testing.T) {
		svc, repo := seed(t, []domain.ParkingSlot{
			{ID: "A1", Status: domain.SlotAvailable, DistanceFromEntrance: 10},
			{ID: "A2", Status: domain.SlotOccupied, DistanceFromEntrance: 1},
			{ID: "A3", Status: domain.SlotAvailable, DistanceFromEntrance: 25},
		})

		nearest, err := svc.SuggestNearest(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if nearest.ID != "A1" {
			t.Fatalf("expected A1 suggested, got %s", nearest.ID)
		}
		if nearest.Status != domain.SlotSuggested {
			t.Fatalf("expected suggested status, got %s", nearest.Status)
		}

		stored, err := repo.FindByID(ctx, "A1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if stored.Status != domain.SlotSuggested {
			t.Fatalf("expected stored status suggested, got %s", stored.Status)
		}
	})

	t.Run("ties resolve to lexicographically first ID", func(t *testing.T) {
		svc, _ := seed(t, []domain.ParkingSlot{
			{ID: "B2", Status: domain.SlotAvailable, DistanceFromEntrance: 10},
			{ID: "B1", Status: domain.SlotAvailable, DistanceFromEntrance: 10},
		})

		nearest, err := svc.SuggestNearest(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if nearest.ID != "B1" {
			t.Fatalf("expected B1 on tie, got %s", nearest.ID)
		}
	})

	t.Run("no available slot means no suggestion", func(t *testing.T) {
		svc, _ := seed(t, []domain.ParkingSlot{
			{ID: "A1", Status: domain.SlotOccupied, DistanceFromEntrance: 5},
		})

		if _, err := svc.SuggestNearest(ctx); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestLayout(t *testing.T) {
	svc := NewSlotCatalogService(memory.NewParkingSlotRepo(), testConfig(), 1)
	layout := svc.Layout()
	if layout.Rows != 5 || layout.SlotsPerRow != 12 {
		t.Fatalf("expected layout 5x12, got %dx%d", layout.Rows, layout.SlotsPerRow)
	}
	if layout.Floor != "Basement 1" {
		t.Fatalf("expected floor 'Basement 1', got %q", layout.Floor)
	}
}
