// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// BookingQueue is the durable queue carrying booking lifecycle events.
const BookingQueue = "booking.events"

// Event types.
const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
)

// BookingEvent is published whenever a booking is created or changes
// status. It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type BookingEvent struct {
	EventID        string `json:"event_id"`
	Type           string `json:"type"`
	BookingID      uint64 `json:"booking_id"`
	ListingID      uint64 `json:"listing_id"`
	ListingTitle   string `json:"listing_title,omitempty"`
	GuestID        uint64 `json:"guest_id"`
	HostID         uint64 `json:"host_id,omitempty"`
	ActorID        uint64 `json:"actor_id"`
	CheckIn        string `json:"check_in"`
	CheckOut       string `json:"check_out"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

// NewBookingEvent builds an event for b. prev is empty for creations.
func NewBookingEvent(typ string, b *model.Booking, prev model.BookingStatus, actorID uint64, now time.Time) BookingEvent {
	ev := BookingEvent{
		EventID:        uuid.NewString(),
		Type:           typ,
		BookingID:      b.ID,
		ListingID:      b.ListingID,
		GuestID:        b.GuestID,
		ActorID:        actorID,
		CheckIn:        b.CheckIn.Format(time.DateOnly),
		CheckOut:       b.CheckOut.Format(time.DateOnly),
		Status:         string(b.Status),
		PreviousStatus: string(prev),
		OccurredAt:     now.UTC().Format(time.RFC3339),
	}
	if b.Listing != nil {
		ev.ListingTitle = b.Listing.Title
		ev.HostID = b.Listing.HostID
	}
	return ev
}

// LogLine renders the event as a single human-friendly log line.
func (ev BookingEvent) LogLine() string {
	transition := ev.Status
	if ev.PreviousStatus != "" {
		transition = ev.PreviousStatus + "->" + ev.Status
	}
	return fmt.Sprintf("[%s] %s | event_id=%s | booking_id=%d | listing_id=%d | listing=%q | guest_id=%d | host_id=%d | actor_id=%d | stay=%s..%s | status=%s\n",
		ev.OccurredAt, ev.Type, ev.EventID, ev.BookingID, ev.ListingID, ev.ListingTitle,
		ev.GuestID, ev.HostID, ev.ActorID, ev.CheckIn, ev.CheckOut, transition)
}
