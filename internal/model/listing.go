package model

import (
	"math"
	"time"
)

// Listing mirrors the `listings` table. A listing belongs to exactly one
// host and is removed together with it.
type Listing struct {
	ID           uint64    // listings.id
	HostID       uint64    // listings.host_id (FK users.id)
	Title        string    // listings.title
	Description  string    // listings.description
	Price        float64   // listings.price, DECIMAL(10,2)
	Location     string    // listings.location
	Availability bool      // listings.availability
	CreatedAt    time.Time // listings.created_at
	UpdatedAt    time.Time // listings.updated_at

	Host *User // joined host snapshot, nil when not loaded
}

// RoundPrice rounds a nightly price to cents.
func RoundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}
