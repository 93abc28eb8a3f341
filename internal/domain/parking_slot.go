package domain

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotOccupied  SlotStatus = "occupied"
	SlotSelected  SlotStatus = "selected"
	SlotSuggested SlotStatus = "suggested"
)

type ParkingSlot struct {
	ID                   string     `json:"id"` // Hàng + số, ví dụ "A5"
	Row                  string     `json:"row"`
	Number               int        `json:"number"`
	Status               SlotStatus `json:"status"`
	PricePerHour         float64    `json:"price_per_hour"`
	DistanceFromEntrance int        `json:"distance_from_entrance"` // mét
	Floor                string     `json:"floor"`
}

// SlotLayoutDTO - frontend render lưới theo đúng cấu hình của bộ sinh catalog,
// tránh việc renderer tự giả định số cột mỗi hàng.
type SlotLayoutDTO struct {
	Rows        int    `json:"rows"`
	SlotsPerRow int    `json:"slots_per_row"`
	Floor       string `json:"floor"`
}

type SlotOverviewDTO struct {
	Slots         []ParkingSlot `json:"slots"`
	Layout        SlotLayoutDTO `json:"layout"`
	SuggestedSlot *ParkingSlot  `json:"suggested_slot,omitempty"`
	SelectedSlot  *ParkingSlot  `json:"selected_slot,omitempty"`
}

type PriceEstimateDTO struct {
	SlotID        string `json:"slot_id" binding:"required"`
	DurationHours int    `json:"duration_hours" binding:"required"`
}

type PriceEstimateResponse struct {
	SlotID        string  `json:"slot_id"`
	Floor         string  `json:"floor"`
	PricePerHour  float64 `json:"price_per_hour"`
	DurationHours int     `json:"duration_hours"`
	TotalAmount   float64 `json:"total_amount"`
}
