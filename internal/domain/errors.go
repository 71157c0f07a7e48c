package domain

import "errors"

var (
	ErrSlotNotFound         = errors.New("time slot not found")
	ErrSlotUnavailable      = errors.New("time slot is not available")
	ErrServiceNotFound      = errors.New("service not found")
	ErrDiscountInapplicable = errors.New("discount is not applicable")
	ErrDuplicateOrderRef    = errors.New("order ref already exists")
	ErrHoldNotFound         = errors.New("pending hold not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingNotPending    = errors.New("booking is not pending")
	ErrGatewayBuild         = errors.New("failed to build payment url")
)
