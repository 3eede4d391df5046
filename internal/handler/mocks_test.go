package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/middleware"
	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/service"
)

// --- Mock BookingService ---

type mockBookingService struct {
	createFn       func(ctx context.Context, caller model.Caller, listingID uint64, in, out time.Time) (*model.Booking, error)
	availabilityFn func(ctx context.Context, listingID uint64, in, out time.Time) (*service.Availability, error)
	listFn         func(ctx context.Context, caller model.Caller) ([]model.Booking, error)
	getFn          func(ctx context.Context, caller model.Caller, id uint64) (*model.Booking, error)
	setStatusFn    func(ctx context.Context, caller model.Caller, id uint64, status string) (*model.Booking, error)
	cancelFn       func(ctx context.Context, caller model.Caller, id uint64) error
}

func (m *mockBookingService) Create(ctx context.Context, caller model.Caller, listingID uint64, in, out time.Time) (*model.Booking, error) {
	return m.createFn(ctx, caller, listingID, in, out)
}
func (m *mockBookingService) IsAvailable(context.Context, uint64, time.Time, time.Time) (bool, error) {
	return true, nil
}
func (m *mockBookingService) HasConflict(context.Context, uint64, time.Time, time.Time) (bool, error) {
	return false, nil
}
func (m *mockBookingService) Availability(ctx context.Context, listingID uint64, in, out time.Time) (*service.Availability, error) {
	return m.availabilityFn(ctx, listingID, in, out)
}
func (m *mockBookingService) List(ctx context.Context, caller model.Caller) ([]model.Booking, error) {
	return m.listFn(ctx, caller)
}
func (m *mockBookingService) Get(ctx context.Context, caller model.Caller, id uint64) (*model.Booking, error) {
	return m.getFn(ctx, caller, id)
}
func (m *mockBookingService) SetStatus(ctx context.Context, caller model.Caller, id uint64, status string) (*model.Booking, error) {
	return m.setStatusFn(ctx, caller, id, status)
}
func (m *mockBookingService) Cancel(ctx context.Context, caller model.Caller, id uint64) error {
	return m.cancelFn(ctx, caller, id)
}

// --- Mock ListingService ---

type mockListingService struct {
	listFn   func(ctx context.Context) ([]model.Listing, error)
	getFn    func(ctx context.Context, id uint64) (*model.Listing, error)
	createFn func(ctx context.Context, caller model.Caller, in service.ListingInput) (*model.Listing, error)
	updateFn func(ctx context.Context, caller model.Caller, id uint64, p service.ListingPatch) (*model.Listing, error)
	deleteFn func(ctx context.Context, caller model.Caller, id uint64) error
}

func (m *mockListingService) List(ctx context.Context) ([]model.Listing, error) { return m.listFn(ctx) }
func (m *mockListingService) Get(ctx context.Context, id uint64) (*model.Listing, error) {
	return m.getFn(ctx, id)
}
func (m *mockListingService) Create(ctx context.Context, caller model.Caller, in service.ListingInput) (*model.Listing, error) {
	return m.createFn(ctx, caller, in)
}
func (m *mockListingService) Update(ctx context.Context, caller model.Caller, id uint64, p service.ListingPatch) (*model.Listing, error) {
	return m.updateFn(ctx, caller, id, p)
}
func (m *mockListingService) Delete(ctx context.Context, caller model.Caller, id uint64) error {
	return m.deleteFn(ctx, caller, id)
}

// --- Mock UserService ---

type mockUserService struct {
	listFn   func(ctx context.Context, caller model.Caller) ([]model.User, error)
	getFn    func(ctx context.Context, caller model.Caller, id uint64) (*model.User, error)
	updateFn func(ctx context.Context, caller model.Caller, id uint64, p service.UserPatch) (*model.User, error)
	deleteFn func(ctx context.Context, caller model.Caller, id uint64) error
}

func (m *mockUserService) List(ctx context.Context, caller model.Caller) ([]model.User, error) {
	return m.listFn(ctx, caller)
}
func (m *mockUserService) Get(ctx context.Context, caller model.Caller, id uint64) (*model.User, error) {
	return m.getFn(ctx, caller, id)
}
func (m *mockUserService) Update(ctx context.Context, caller model.Caller, id uint64, p service.UserPatch) (*model.User, error) {
	return m.updateFn(ctx, caller, id, p)
}
func (m *mockUserService) Delete(ctx context.Context, caller model.Caller, id uint64) error {
	return m.deleteFn(ctx, caller, id)
}

// --- Mock AuthService ---

type mockAuthService struct {
	registerFn func(ctx context.Context, in service.RegisterInput) (*model.User, error)
	loginFn    func(ctx context.Context, username, password string) (*service.LoginResult, error)
}

func (m *mockAuthService) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	return m.registerFn(ctx, in)
}
func (m *mockAuthService) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	return m.loginFn(ctx, username, password)
}

// --- helpers ---

var (
	guestCaller = model.Caller{ID: 2, Role: model.RoleGuest}
	hostCaller  = model.Caller{ID: 1, Role: model.RoleHost}
)

func newCtx(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func asCaller(c echo.Context, caller model.Caller) echo.Context {
	middleware.SetCaller(c, caller, "someone")
	return c
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}

func sampleBooking() *model.Booking {
	host := &model.User{ID: 1, Username: "hank", Role: model.RoleHost, PasswordHash: "$2a$10$secret"}
	return &model.Booking{
		ID:        50,
		GuestID:   2,
		ListingID: 10,
		CheckIn:   time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		CheckOut:  time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
		Status:    model.StatusPending,
		Guest:     &model.User{ID: 2, Username: "gina", Role: model.RoleGuest, PasswordHash: "$2a$10$secret"},
		Listing:   &model.Listing{ID: 10, HostID: 1, Title: "Loft", Price: 99.999, Location: "Porto", Availability: true, Host: host},
	}
}
