package domain

import "time"

type Field struct {
	ID         int64
	FacilityID int64
	Name       string
}

type TimeSlot struct {
	ID        int64
	FieldID   int64
	Price     int64
	StartTime time.Time
	EndTime   time.Time
	Available bool
}

type FacilityService struct {
	ID    int64
	Name  string
	Price int64
}

type Discount struct {
	ID        int64
	Percent   int
	Active    bool
	ValidFrom time.Time
	ValidTo   time.Time
}

// Applicable reports whether the discount may be applied at the given time.
func (d Discount) Applicable(at time.Time) bool {
	if !d.Active || d.Percent <= 0 || d.Percent > 100 {
		return false
	}
	if !d.ValidFrom.IsZero() && at.Before(d.ValidFrom) {
		return false
	}
	if !d.ValidTo.IsZero() && at.After(d.ValidTo) {
		return false
	}
	return true
}
