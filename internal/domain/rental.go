package domain

import (
	"math"
	"time"
)

// MaxRentalHours is the longest lease whose expiry still fits in a time.Duration.
const MaxRentalHours = math.MaxInt64 / int64(time.Hour)

// Rental is an exclusive, time-boxed lease. At most one exists per resource key.
type Rental struct {
	ResourceKey       string    `json:"resource_key"`
	Specialty         string    `json:"specialty"`
	OwnerAtRentalTime string    `json:"owner_at_rental_time"`
	Renter            string    `json:"renter"`
	Hours             int       `json:"hours"`
	PricePerHour      float64   `json:"price_per_hour"`
	StartedAt         time.Time `json:"started_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

func NewRental(token Token, renter string, hours int, now time.Time) Rental {
	return Rental{
		ResourceKey:       token.ResourceKey,
		Specialty:         token.Specialty,
		OwnerAtRentalTime: token.Owner,
		Renter:            renter,
		Hours:             hours,
		PricePerHour:      token.RentPricePerHour,
		StartedAt:         now,
		ExpiresAt:         now.Add(time.Duration(hours) * time.Hour),
	}
}

// Expired is evaluated lazily against the caller's clock; nothing evicts rentals in the background.
func (r Rental) Expired(now time.Time) bool {
	if r.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(r.ExpiresAt)
}
