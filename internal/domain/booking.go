package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

type Booking struct {
	ID            int64
	OrderRef      string
	Email         string
	Status        BookingStatus
	TotalAmount   int64
	DepositAmount int64
	DiscountID    int64
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BookingDetail carries the booking together with the slot and field ids
// needed to materialize an order from it.
type BookingDetail struct {
	Booking
	SlotIDs  []int64
	FieldIDs []int64
}
