package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
)

type WalletTransaction struct {
	ID          string            `json:"id"`
	Date        time.Time         `json:"date"`
	Amount      float64           `json:"amount"` // Âm cho debit, dương cho credit
	Type        TransactionType   `json:"type"`
	Description string            `json:"description"`
	Status      TransactionStatus `json:"status"`
	BookingID   null.String       `json:"booking_id,omitempty"`
}

type WalletResponse struct {
	Balance    float64 `json:"balance"` // ADA
	LowBalance bool    `json:"low_balance"`
}

type TopUpResponse struct {
	Balance     float64 `json:"balance"`
	AmountAdded float64 `json:"amount_added"`
}
