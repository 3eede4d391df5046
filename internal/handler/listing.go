package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/service"
)

// ListingHandler serves the public catalogue and the host-only writes.
type ListingHandler struct {
	Listings service.ListingService
	Bookings service.BookingService
}

func NewListingHandler(listings service.ListingService, bookings service.BookingService) *ListingHandler {
	return &ListingHandler{Listings: listings, Bookings: bookings}
}

type createListingReq struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Location     string  `json:"location"`
	Availability *bool   `json:"availability"`
}

// updateListingReq uses pointers so an omitted field is left unchanged.
type updateListingReq struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	Location     *string  `json:"location"`
	Availability *bool    `json:"availability"`
}

// List returns every listing with its host. Public and cached.
func (h *ListingHandler) List(c echo.Context) error {
	items, err := h.Listings.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]*listingDTO, 0, len(items))
	for i := range items {
		out = append(out, toListing(&items[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ListingHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	l, err := h.Listings.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListing(l))
}

// Availability answers GET /api/listings/:id/availability?checkIn=&checkOut=.
func (h *ListingHandler) Availability(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	checkIn, checkOut, err := parseRange(c.QueryParam("checkIn"), c.QueryParam("checkOut"))
	if err != nil {
		return err
	}
	a, err := h.Bookings.Availability(c.Request().Context(), id, checkIn, checkOut)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"listingId": a.ListingID,
		"checkIn":   a.CheckIn,
		"checkOut":  a.CheckOut,
		"available": a.Available,
		"bookable":  a.Bookable,
	})
}

func (h *ListingHandler) Create(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req createListingReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	l, err := h.Listings.Create(c.Request().Context(), caller, service.ListingInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Location:     req.Location,
		Availability: req.Availability,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toListing(l))
}

func (h *ListingHandler) Update(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req updateListingReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	l, err := h.Listings.Update(c.Request().Context(), caller, id, service.ListingPatch{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Location:     req.Location,
		Availability: req.Availability,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListing(l))
}

func (h *ListingHandler) Delete(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Listings.Delete(c.Request().Context(), caller, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
