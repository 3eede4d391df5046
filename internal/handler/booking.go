package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/service"
)

type BookingHandler struct {
	Bookings service.BookingService
}

func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

type createBookingReq struct {
	ListingID uint64 `json:"listingId"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
}

type statusReq struct {
	Status string `json:"status"`
}

// List returns the caller's bookings: a guest's own, or those on a host's
// listings.
func (h *BookingHandler) List(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	items, err := h.Bookings.List(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	out := make([]*bookingDTO, 0, len(items))
	for i := range items {
		out = append(out, toBooking(&items[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) Get(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Bookings.Get(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBooking(b))
}

// Create books a listing for the calling guest. The new booking is Pending.
func (h *BookingHandler) Create(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	checkIn, checkOut, err := parseRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return err
	}
	b, err := h.Bookings.Create(c.Request().Context(), caller, req.ListingID, checkIn, checkOut)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/bookings/"+strconv.FormatUint(b.ID, 10))
	return c.JSON(http.StatusCreated, toBooking(b))
}

// SetStatus lets the listing's host confirm or cancel.
func (h *BookingHandler) SetStatus(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	b, err := h.Bookings.SetStatus(c.Request().Context(), caller, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBooking(b))
}

// Cancel is the guest's self-cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Bookings.Cancel(c.Request().Context(), caller, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
