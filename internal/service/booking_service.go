package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/queue"
	"github.com/iliyamo/rental-marketplace/internal/repository"
)

// Availability is the answer to a date-range query on a listing.
type Availability struct {
	ListingID uint64
	CheckIn   time.Time
	CheckOut  time.Time
	// Available is true when no Confirmed booking overlaps the range.
	Available bool
	// Bookable is true when no booking other than a Canceled one overlaps,
	// which is the condition a new booking must meet.
	Bookable bool
}

type BookingService interface {
	Create(ctx context.Context, caller model.Caller, listingID uint64, checkIn, checkOut time.Time) (*model.Booking, error)
	IsAvailable(ctx context.Context, listingID uint64, checkIn, checkOut time.Time) (bool, error)
	HasConflict(ctx context.Context, listingID uint64, checkIn, checkOut time.Time) (bool, error)
	Availability(ctx context.Context, listingID uint64, checkIn, checkOut time.Time) (*Availability, error)
	List(ctx context.Context, caller model.Caller) ([]model.Booking, error)
	Get(ctx context.Context, caller model.Caller, id uint64) (*model.Booking, error)
	SetStatus(ctx context.Context, caller model.Caller, id uint64, status string) (*model.Booking, error)
	Cancel(ctx context.Context, caller model.Caller, id uint64) error
}

type bookingService struct {
	bookings BookingRepository
	listings ListingRepository
	events   EventPublisher
	store    storeRunner
	now      Clock
}

// NewBookingService wires booking operations. events may be nil.
func NewBookingService(bookings BookingRepository, listings ListingRepository, events EventPublisher, opts StoreOptions) BookingService {
	return &bookingService{
		bookings: bookings,
		listings: listings,
		events:   events,
		store:    newStoreRunner(opts),
		now:      time.Now,
	}
}

func validRange(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return invalid("checkIn and checkOut are required")
	}
	if !checkIn.Before(checkOut) {
		return invalid("checkIn must be before checkOut")
	}
	return nil
}

func (s *bookingService) Create(ctx context.Context, caller model.Caller, listingID uint64, checkIn, checkOut time.Time) (*model.Booking, error) {
	if caller.Role != model.RoleGuest {
		return nil, forbidden("guest role required")
	}
	if listingID == 0 {
		return nil, invalid("listingId is required")
	}
	if err := validRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	b := &model.Booking{
		GuestID:   caller.ID,
		ListingID: listingID,
		CheckIn:   checkIn.UTC(),
		CheckOut:  checkOut.UTC(),
	}
	if err := s.store.run(ctx, "bookings.create", func(c context.Context) error {
		return s.bookings.CreateIfFree(c, b)
	}); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("guest not found")
		}
		return nil, translate(err)
	}
	b = s.reload(ctx, b)
	s.publish(ctx, queue.NewBookingEvent(queue.EventBookingCreated, b, "", caller.ID, s.now()))
	return b, nil
}

func (s *bookingService) IsAvailable(ctx context.Context, listingID uint64, checkIn, checkOut time.Time) (bool, error) {
	if err := validRange(checkIn, checkOut); err != nil {
		return false, err
	}
	taken, err := fetch(ctx, s.store, "bookings.overlap_confirmed", func(c context.Context) (bool, error) {
		return s.bookings.HasOverlap(c, listingID, checkIn.UTC(), checkOut.UTC(), model.StatusConfirmed)
	})
	return !taken && err == nil, err
}

func (s *bookingService) HasConflict(ctx context.Context, listingID uint64, checkIn, checkOut time.Time) (bool, error) {
	if err := validRange(checkIn, checkOut); err != nil {
		return false, err
	}
	return fetch(ctx, s.store, "bookings.overlap_active", func(c context.Context) (bool, error) {
		return s.bookings.HasOverlap(c, listingID, checkIn.UTC(), checkOut.UTC(), model.StatusPending, model.StatusConfirmed)
	})
}

func (s *bookingService) Availability(ctx context.Context, listingID uint64, checkIn, checkOut time.Time) (*Availability, error) {
	if err := validRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	if _, err := fetch(ctx, s.store, "listings.get", func(c context.Context) (*model.Listing, error) {
		return s.listings.GetByID(c, listingID)
	}); err != nil {
		return nil, translate(err)
	}
	available, err := s.IsAvailable(ctx, listingID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	clash, err := s.HasConflict(ctx, listingID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	return &Availability{
		ListingID: listingID,
		CheckIn:   checkIn.UTC(),
		CheckOut:  checkOut.UTC(),
		Available: available,
		Bookable:  !clash,
	}, nil
}

func (s *bookingService) List(ctx context.Context, caller model.Caller) ([]model.Booking, error) {
	var (
		out []model.Booking
		err error
	)
	switch caller.Role {
	case model.RoleGuest:
		out, err = fetch(ctx, s.store, "bookings.by_guest", func(c context.Context) ([]model.Booking, error) {
			return s.bookings.ListByGuest(c, caller.ID)
		})
	case model.RoleHost:
		out, err = fetch(ctx, s.store, "bookings.by_host", func(c context.Context) ([]model.Booking, error) {
			return s.bookings.ListByHost(c, caller.ID)
		})
	default:
		return nil, forbidden("bookings are listed for guests and hosts only")
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, notFound("no bookings found")
	}
	return out, nil
}

func (s *bookingService) load(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := fetch(ctx, s.store, "bookings.get", func(c context.Context) (*model.Booking, error) {
		return s.bookings.GetByID(c, id)
	})
	return b, translate(err)
}

func hostOf(b *model.Booking) uint64 {
	if b.Listing == nil {
		return 0
	}
	return b.Listing.HostID
}

// Get returns a booking to its guest, the listing's host, or an admin.
// Anyone else gets the same not-found answer as for a missing id.
func (s *bookingService) Get(ctx context.Context, caller model.Caller, id uint64) (*model.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Is(b.GuestID) || caller.Is(hostOf(b)) || caller.IsAdmin() {
		return b, nil
	}
	return nil, notFound("booking not found")
}

// SetStatus is the host-side transition: Pending -> Confirmed | Canceled,
// Confirmed -> Canceled.
func (s *bookingService) SetStatus(ctx context.Context, caller model.Caller, id uint64, status string) (*model.Booking, error) {
	if caller.Role != model.RoleHost {
		return nil, forbidden("host role required")
	}
	target, err := model.ParseBookingStatus(status)
	if err != nil || (target != model.StatusConfirmed && target != model.StatusCanceled) {
		return nil, invalid("status must be Confirmed or Canceled")
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Is(hostOf(b)) {
		return nil, forbidden("only the listing's host may change this booking")
	}
	return s.transition(ctx, caller, b, target)
}

// Cancel is the guest-side self-cancel.
func (s *bookingService) Cancel(ctx context.Context, caller model.Caller, id uint64) error {
	if caller.Role != model.RoleGuest {
		return forbidden("guest role required")
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !caller.Is(b.GuestID) {
		return forbidden("only the booking's guest may cancel it")
	}
	_, err = s.transition(ctx, caller, b, model.StatusCanceled)
	return err
}

func (s *bookingService) transition(ctx context.Context, caller model.Caller, b *model.Booking, target model.BookingStatus) (*model.Booking, error) {
	from := b.Status
	if from == target {
		return nil, conflict("booking is already " + string(target))
	}
	if !from.CanTransitionTo(target) {
		return nil, conflict("cannot change booking status from " + string(from) + " to " + string(target))
	}
	if err := s.store.run(ctx, "bookings.update_status", func(c context.Context) error {
		return s.bookings.UpdateStatus(c, b.ID, from, target)
	}); err != nil {
		return nil, translate(err)
	}
	updated, err := s.load(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.NewBookingEvent(queue.EventBookingStatusChanged, updated, from, caller.ID, s.now()))
	return updated, nil
}

// reload fetches the committed booking with its snapshots. The booking
// already exists at this point, so a failed read returns b as inserted
// rather than an error.
func (s *bookingService) reload(ctx context.Context, b *model.Booking) *model.Booking {
	got, err := fetch(ctx, s.store, "bookings.get", func(c context.Context) (*model.Booking, error) {
		return s.bookings.GetByID(c, b.ID)
	})
	if err != nil {
		log.Printf("bookings: reload %d after create: %v", b.ID, err)
		return b
	}
	return got
}

// publish is best effort; a broker problem never fails the request.
func (s *bookingService) publish(ctx context.Context, ev queue.BookingEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("events: publish %s for booking %d failed: %v", ev.Type, ev.BookingID, err)
	}
}
