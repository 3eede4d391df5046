// Package handler exposes the HTTP handlers. Handlers bind and validate
// the request shape, pass the authenticated caller to a service and shape
// the response DTO. Errors are returned to the central error handler.
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/middleware"
	"github.com/iliyamo/rental-marketplace/internal/model"
)

func badRequest(msg string) error { return echo.NewHTTPError(http.StatusBadRequest, msg) }

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + name)
	}
	return id, nil
}

// parseDate accepts a calendar date (2006-01-02) or a full RFC 3339
// timestamp. Results are UTC.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, badRequest(field + " is required")
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, badRequest(field + " must be YYYY-MM-DD or RFC 3339")
}

func parseRange(in, out string) (time.Time, time.Time, error) {
	checkIn, err := parseDate("checkIn", in)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	checkOut, err := parseDate("checkOut", out)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return checkIn, checkOut, nil
}

// callerOf is the caller set by JWTAuth. Routes reaching it without one
// are mis-wired; the answer is still a plain 401.
func callerOf(c echo.Context) (model.Caller, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return model.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return caller, nil
}

// ----- response DTOs -----

// userDTO never carries the password hash.
type userDTO struct {
	UserID    uint64    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	UserType  string    `json:"userType"`
	CreatedAt time.Time `json:"createdAt"`
}

type listingDTO struct {
	ListingID    uint64    `json:"listingId"`
	HostID       uint64    `json:"hostId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Location     string    `json:"location"`
	Availability bool      `json:"availability"`
	CreatedAt    time.Time `json:"createdAt"`
	Host         *userDTO  `json:"host,omitempty"`
}

type bookingDTO struct {
	BookingID uint64      `json:"bookingId"`
	GuestID   uint64      `json:"guestId"`
	ListingID uint64      `json:"listingId"`
	CheckIn   time.Time   `json:"checkIn"`
	CheckOut  time.Time   `json:"checkOut"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Guest     *userDTO    `json:"guest,omitempty"`
	Listing   *listingDTO `json:"listing,omitempty"`
}

func toUser(u *model.User) *userDTO {
	if u == nil {
		return nil
	}
	return &userDTO{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Email:     u.Email,
		UserType:  u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

func toListing(l *model.Listing) *listingDTO {
	if l == nil {
		return nil
	}
	return &listingDTO{
		ListingID:    l.ID,
		HostID:       l.HostID,
		Title:        l.Title,
		Description:  l.Description,
		Price:        model.RoundPrice(l.Price),
		Location:     l.Location,
		Availability: l.Availability,
		CreatedAt:    l.CreatedAt,
		Host:         toUser(l.Host),
	}
}

func toBooking(b *model.Booking) *bookingDTO {
	return &bookingDTO{
		BookingID: b.ID,
		GuestID:   b.GuestID,
		ListingID: b.ListingID,
		CheckIn:   b.CheckIn,
		CheckOut:  b.CheckOut,
		Status:    b.Status.String(),
		CreatedAt: b.CreatedAt,
		Guest:     toUser(b.Guest),
		Listing:   toListing(b.Listing),
	}
}
