package model

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCanceled  BookingStatus = "Canceled"
)

// transitions is the booking state machine. Canceled is terminal.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCanceled},
	StatusConfirmed: {StatusCanceled},
	StatusCanceled:  {},
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is allowed.
// Moving to the current status is never allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from s.
func (s BookingStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s BookingStatus) String() string { return string(s) }

// ParseBookingStatus converts a status name (case-insensitive) to a
// BookingStatus.
func ParseBookingStatus(s string) (BookingStatus, error) {
	for st := range transitions {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid booking status: %q", s)
}

// Booking mirrors the `bookings` table. The stay covers the half-open
// interval [CheckIn, CheckOut).
type Booking struct {
	ID        uint64        // bookings.id
	GuestID   uint64        // bookings.guest_id (FK users.id)
	ListingID uint64        // bookings.listing_id (FK listings.id)
	CheckIn   time.Time     // bookings.check_in
	CheckOut  time.Time     // bookings.check_out
	Status    BookingStatus // bookings.status
	CreatedAt time.Time     // bookings.created_at
	UpdatedAt time.Time     // bookings.updated_at

	Guest   *User    // joined guest snapshot
	Listing *Listing // joined listing snapshot (with host)
}

// Overlaps reports whether the half-open ranges [a1, a2) and [b1, b2)
// share at least one instant. Back-to-back stays do not overlap.
func Overlaps(a1, a2, b1, b2 time.Time) bool {
	return a1.Before(b2) && b1.Before(a2)
}
