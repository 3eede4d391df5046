package service

import (
	"context"
	"time"

	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/queue"
)

// UserRepository is satisfied by *repository.UserRepo.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uint64) error
}

// ListingRepository is satisfied by *repository.ListingRepo.
type ListingRepository interface {
	Create(ctx context.Context, l *model.Listing) error
	GetByID(ctx context.Context, id uint64) (*model.Listing, error)
	GetByIDAndHost(ctx context.Context, id, hostID uint64) (*model.Listing, error)
	List(ctx context.Context) ([]model.Listing, error)
	Update(ctx context.Context, l *model.Listing) error
	Delete(ctx context.Context, id, hostID uint64) error
}

// BookingRepository is satisfied by *repository.BookingRepo.
type BookingRepository interface {
	CreateIfFree(ctx context.Context, b *model.Booking) error
	HasOverlap(ctx context.Context, listingID uint64, checkIn, checkOut time.Time, statuses ...model.BookingStatus) (bool, error)
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	ListByGuest(ctx context.Context, guestID uint64) ([]model.Booking, error)
	ListByHost(ctx context.Context, hostID uint64) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error
}

// EventPublisher is satisfied by *queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// CachePurger drops cached listing responses after a write. It is
// satisfied by *middleware.ResponseCache.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time
