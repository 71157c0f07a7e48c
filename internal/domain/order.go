package domain

import "time"

type Order struct {
	ID            int64
	BookingID     int64
	FacilityID    int64
	TotalAmount   int64
	DepositAmount int64
	CreatedAt     time.Time
}

type OrderField struct {
	OrderID int64
	FieldID int64
}
