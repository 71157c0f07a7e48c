package domain

import "time"

type HoldStatus string

const (
	HoldStatusInitiated        HoldStatus = "INITIATED"
	HoldStatusAwaitingCallback HoldStatus = "AWAITING_CALLBACK"
)

// PendingHold links a tentative booking to an outstanding payment intent.
// It is a single-use token: once resolved it is removed and never reused.
type PendingHold struct {
	OrderRef      string     `json:"order_ref"`
	BookingID     int64      `json:"booking_id"`
	AmountTotal   int64      `json:"amount_total"`
	DepositAmount int64      `json:"deposit_amount"`
	SlotIDs       []int64    `json:"slot_ids"`
	ServiceIDs    []int64    `json:"service_ids"`
	DiscountID    int64      `json:"discount_id,omitempty"`
	Status        HoldStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
}
