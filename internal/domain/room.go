package domain

import "github.com/shopspring/decimal"

// Room represents a unit of bookable inventory.
type Room struct {
	Number      string
	Type        string
	Amenities   []string
	NightlyRate decimal.Decimal
	// Available is false while exactly one non-terminal booking holds the room
	// (or while the room is under maintenance).
	Available bool
}

func (r Room) HasAmenity(name string) bool {
	for _, a := range r.Amenities {
		if a == name {
			return true
		}
	}
	return false
}

// AddAmenity keeps the amenity list set-like; it reports whether the list changed.
func (r *Room) AddAmenity(name string) bool {
	if name == "" || r.HasAmenity(name) {
		return false
	}
	r.Amenities = append(r.Amenities, name)
	return true
}

func (r *Room) RemoveAmenity(name string) bool {
	for i, a := range r.Amenities {
		if a == name {
			r.Amenities = append(r.Amenities[:i], r.Amenities[i+1:]...)
			return true
		}
	}
	return false
}

// DiscountedRate returns the nightly rate after a percentage discount.
func (r Room) DiscountedRate(percent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(percent.Div(decimal.NewFromInt(100)))
	return r.NightlyRate.Mul(factor)
}
