package fees

import (
	"context"
	"time"

	"github.com/vuminhq/courtpay/internal/domain"
)

// Catalog is the price-lookup surface the calculator needs.
type Catalog interface {
	GetSlotsByIDs(ctx context.Context, ids []int64) ([]domain.TimeSlot, error)
	GetServicesByIDs(ctx context.Context, ids []int64) ([]domain.FacilityService, error)
	GetDiscountByID(ctx context.Context, id int64) (*domain.Discount, error)
}

// Calculator computes the order total for a booking selection. It has no
// side effects; the result is deterministic for fixed catalog prices.
type Calculator struct {
	catalog Catalog
	now     func() time.Time
}

func NewCalculator(catalog Catalog) *Calculator {
	return &Calculator{catalog: catalog, now: time.Now}
}

func (c *Calculator) Calculate(ctx context.Context, slotIDs, serviceIDs []int64, discountID int64) (int64, error) {
	if len(slotIDs) == 0 {
		return 0, domain.ErrSlotNotFound
	}

	slots, err := c.catalog.GetSlotsByIDs(ctx, slotIDs)
	if err != nil {
		return 0, err
	}
	if len(slots) != len(slotIDs) {
		return 0, domain.ErrSlotNotFound
	}

	var total int64
	for _, slot := range slots {
		if !slot.Available {
			return 0, domain.ErrSlotUnavailable
		}
		total += slot.Price
	}

	if len(serviceIDs) > 0 {
		services, err := c.catalog.GetServicesByIDs(ctx, serviceIDs)
		if err != nil {
			return 0, err
		}
		if len(services) != len(serviceIDs) {
			return 0, domain.ErrServiceNotFound
		}
		for _, svc := range services {
			total += svc.Price
		}
	}

	if discountID != 0 {
		discount, err := c.catalog.GetDiscountByID(ctx, discountID)
		if err != nil {
			return 0, err
		}
		if discount == nil || !discount.Applicable(c.now()) {
			return 0, domain.ErrDiscountInapplicable
		}
		total = total * int64(100-discount.Percent) / 100
	}

	return total, nil
}

// Deposit is the up-front amount collected through the gateway:
// half the total, rounded half up.
func Deposit(total int64) int64 {
	return (total + 1) / 2
}
