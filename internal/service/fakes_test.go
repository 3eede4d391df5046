package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/queue"
	"github.com/iliyamo/rental-marketplace/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories. A single
// mutex plays the role of the listing row lock.
type memStore struct {
	mu       sync.Mutex
	users    map[uint64]*model.User
	listings map[uint64]*model.Listing
	bookings map[uint64]*model.Booking
	nextID   uint64

	// failNext makes the next N calls to CreateIfFree return err.
	failNext int
	failErr  error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uint64]*model.User{},
		listings: map[uint64]*model.Listing{},
		bookings: map[uint64]*model.Booking{},
		nextID:   100,
	}
}

func (m *memStore) addUser(id uint64, username string, role model.Role) *model.User {
	u := &model.User{ID: id, Username: username, Email: username + "@example.com", Role: role}
	m.users[id] = u
	return u
}

func (m *memStore) addListing(id, hostID uint64) *model.Listing {
	l := &model.Listing{ID: id, HostID: hostID, Title: "Loft", Location: "Lisbon", Price: 100, Availability: true, Host: m.users[hostID]}
	m.listings[id] = l
	return l
}

func (m *memStore) addBooking(id, guestID, listingID uint64, in, out time.Time, st model.BookingStatus) {
	m.bookings[id] = &model.Booking{ID: id, GuestID: guestID, ListingID: listingID, CheckIn: in, CheckOut: out, Status: st}
}

func (m *memStore) snapshot(b *model.Booking) *model.Booking {
	cp := *b
	cp.Guest = m.users[b.GuestID]
	if l, ok := m.listings[b.ListingID]; ok {
		lc := *l
		cp.Listing = &lc
	}
	return &cp
}

// --- BookingRepository ---

func (m *memStore) CreateIfFree(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext > 0 {
		m.failNext--
		return m.failErr
	}
	if _, ok := m.users[b.GuestID]; !ok {
		return repository.ErrUserNotFound
	}
	l, ok := m.listings[b.ListingID]
	if !ok {
		return repository.ErrListingNotFound
	}
	if !l.Availability {
		return repository.ErrListingUnavailable
	}
	for _, o := range m.bookings {
		if o.ListingID == b.ListingID && o.Status != model.StatusCanceled &&
			model.Overlaps(o.CheckIn, o.CheckOut, b.CheckIn, b.CheckOut) {
			return repository.ErrOverlap
		}
	}
	m.nextID++
	b.ID = m.nextID
	b.Status = model.StatusPending
	m.bookings[b.ID] = &model.Booking{ID: b.ID, GuestID: b.GuestID, ListingID: b.ListingID, CheckIn: b.CheckIn, CheckOut: b.CheckOut, Status: b.Status}
	*b = *m.snapshot(m.bookings[b.ID])
	return nil
}

func (m *memStore) HasOverlap(_ context.Context, listingID uint64, in, out time.Time, statuses ...model.BookingStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.bookings {
		if o.ListingID != listingID || !model.Overlaps(o.CheckIn, o.CheckOut, in, out) {
			continue
		}
		for _, st := range statuses {
			if o.Status == st {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return m.snapshot(b), nil
}

func (m *memStore) listWhere(keep func(*model.Booking) bool) []model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, *m.snapshot(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListByGuest(_ context.Context, guestID uint64) ([]model.Booking, error) {
	return m.listWhere(func(b *model.Booking) bool { return b.GuestID == guestID }), nil
}

func (m *memStore) ListByHost(_ context.Context, hostID uint64) ([]model.Booking, error) {
	return m.listWhere(func(b *model.Booking) bool {
		l, ok := m.listings[b.ListingID]
		return ok && l.HostID == hostID
	}), nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uint64, from, to model.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return repository.ErrStaleStatus
	}
	b.Status = to
	return nil
}

// memListings adapts memStore to ListingRepository.
type memListings struct{ *memStore }

func (m memListings) Create(_ context.Context, l *model.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	l.ID = m.nextID
	l.Host = m.users[l.HostID]
	cp := *l
	m.listings[l.ID] = &cp
	return nil
}

func (m memListings) GetByID(_ context.Context, id uint64) (*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (m memListings) GetByIDAndHost(ctx context.Context, id, hostID uint64) (*model.Listing, error) {
	l, err := m.GetByID(ctx, id)
	if err != nil || l.HostID != hostID {
		return nil, repository.ErrListingNotFound
	}
	return l, nil
}

func (m memListings) List(_ context.Context) ([]model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Listing
	for _, l := range m.listings {
		out = append(out, *l)
	}
	return out, nil
}

func (m memListings) Update(_ context.Context, l *model.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.listings[l.ID]
	if !ok || cur.HostID != l.HostID {
		return repository.ErrListingNotFound
	}
	cp := *l
	m.listings[l.ID] = &cp
	return nil
}

func (m memListings) Delete(_ context.Context, id, hostID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.listings[id]
	if !ok || cur.HostID != hostID {
		return repository.ErrListingNotFound
	}
	delete(m.listings, id)
	return nil
}

// memUsers adapts memStore to UserRepository.
type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.users {
		if o.Username == u.Username {
			return repository.ErrUsernameExists
		}
		if o.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m memUsers) ExistsUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m memUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m memUsers) Update(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// countingPurger counts cache purges.
type countingPurger struct{ n int }

func (c *countingPurger) Purge(context.Context) error { c.n++; return nil }

var testStoreOptions = StoreOptions{Timeout: time.Second, Backoff: time.Millisecond}
