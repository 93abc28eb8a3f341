package domain

import "time"

type BookingEventType string

const (
	EventBookingStarted BookingEventType = "booking_started"
	EventChargeApplied  BookingEventType = "charge_applied"
	EventLowBalance     BookingEventType = "low_balance"
	EventBookingStopped BookingEventType = "booking_stopped"
	EventBookingEnded   BookingEventType = "booking_ended"
	EventWalletToppedUp BookingEventType = "wallet_topped_up"
)

// BookingEventNotification - Event được gửi đến frontend qua WebSocket
type BookingEventNotification struct {
	EventID       string           `json:"event_id"`
	EventType     BookingEventType `json:"event_type"`
	BookingID     string           `json:"booking_id,omitempty"`
	SlotID        string           `json:"slot_id,omitempty"`
	WalletBalance float64          `json:"wallet_balance"`
	Amount        float64          `json:"amount,omitempty"`
	Message       string           `json:"message,omitempty"` // Thông báo hiển thị cho user
	Timestamp     time.Time        `json:"timestamp"`
}
