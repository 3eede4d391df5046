package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// bookingSelect loads a booking with guest, listing and listing host
// snapshots in one round trip.
const bookingSelect = `SELECT b.id, b.guest_id, b.listing_id, b.check_in, b.check_out, b.status,
	b.created_at, b.updated_at,
	g.id, g.first_name, g.last_name, g.username, g.email, g.role,
	l.id, l.host_id, l.title, l.description, l.price, l.location, l.availability, l.created_at, l.updated_at,
	h.id, h.first_name, h.last_name, h.username, h.email, h.role
	FROM bookings b
	JOIN users g ON g.id = b.guest_id
	JOIN listings l ON l.id = b.listing_id
	JOIN users h ON h.id = l.host_id`

// BookingRepo encapsulates booking persistence. Creation serializes on the
// listing row; status changes are compare-and-set.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

func scanBooking(s rowScanner) (*model.Booking, error) {
	var (
		b                 model.Booking
		g, h              model.User
		l                 model.Listing
		status, gr, hrole string
	)
	if err := s.Scan(&b.ID, &b.GuestID, &b.ListingID, &b.CheckIn, &b.CheckOut, &status,
		&b.CreatedAt, &b.UpdatedAt,
		&g.ID, &g.FirstName, &g.LastName, &g.Username, &g.Email, &gr,
		&l.ID, &l.HostID, &l.Title, &l.Description, &l.Price, &l.Location, &l.Availability, &l.CreatedAt, &l.UpdatedAt,
		&h.ID, &h.FirstName, &h.LastName, &h.Username, &h.Email, &hrole); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	g.Role = model.Role(gr)
	h.Role = model.Role(hrole)
	l.Host = &h
	b.Guest = &g
	b.Listing = &l
	return &b, nil
}

// overlapClause matches bookings whose [check_in, check_out) intersects
// [?, ?). Arguments are bound as (checkOut, checkIn).
const overlapClause = "listing_id = ? AND check_in < ? AND ? < check_out"

// CreateIfFree inserts b as Pending inside a single transaction that locks
// the listing row, so two requests for the same listing cannot both pass
// the conflict check. Only ID and Status are filled in; callers reload the
// row with GetByID. Errors: ErrUserNotFound, ErrListingNotFound,
// ErrListingUnavailable, ErrOverlap, and ErrOutcomeUnknown when COMMIT fails.
func (r *BookingRepo) CreateIfFree(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var guests int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id = ?", b.GuestID).Scan(&guests); err != nil {
		return err
	}
	if guests == 0 {
		return ErrUserNotFound
	}

	var open bool
	err = tx.QueryRowContext(ctx, "SELECT availability FROM listings WHERE id = ? FOR UPDATE", b.ListingID).Scan(&open)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrListingNotFound
	}
	if err != nil {
		return err
	}
	if !open {
		return ErrListingUnavailable
	}

	var clashes int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE "+overlapClause+" AND status <> ?",
		b.ListingID, b.CheckOut, b.CheckIn, string(model.StatusCanceled)).Scan(&clashes); err != nil {
		return err
	}
	if clashes > 0 {
		return ErrOverlap
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO bookings (guest_id, listing_id, check_in, check_out, status) VALUES (?,?,?,?,?)",
		b.GuestID, b.ListingID, b.CheckIn, b.CheckOut, string(model.StatusPending))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return uncertain(err)
	}
	committed = true

	b.ID = uint64(id)
	b.Status = model.StatusPending
	return nil
}

// HasOverlap reports whether any booking on the listing with one of the
// given statuses intersects [checkIn, checkOut).
func (r *BookingRepo) HasOverlap(ctx context.Context, listingID uint64, checkIn, checkOut time.Time, statuses ...model.BookingStatus) (bool, error) {
	if len(statuses) == 0 {
		return false, nil
	}
	args := []any{listingID, checkOut, checkIn}
	marks := make([]string, len(statuses))
	for i, st := range statuses {
		marks[i] = "?"
		args = append(args, string(st))
	}
	q := "SELECT EXISTS (SELECT 1 FROM bookings WHERE " + overlapClause +
		" AND status IN (" + strings.Join(marks, ",") + "))"
	var found bool
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

// GetByID fetches a booking with its snapshots.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, bookingSelect+" WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// ListByGuest returns the guest's bookings ordered by check-in.
func (r *BookingRepo) ListByGuest(ctx context.Context, guestID uint64) ([]model.Booking, error) {
	return r.list(ctx, bookingSelect+" WHERE b.guest_id = ? ORDER BY b.check_in, b.id", guestID)
}

// ListByHost returns bookings on every listing owned by hostID.
func (r *BookingRepo) ListByHost(ctx context.Context, hostID uint64) ([]model.Booking, error) {
	return r.list(ctx, bookingSelect+" WHERE l.host_id = ? ORDER BY b.check_in, b.id", hostID)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// UpdateStatus moves the booking from `from` to `to` only if it still
// holds `from`. ErrStaleStatus means another writer got there first.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status = ? WHERE id = ? AND status = ?",
		string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleStatus
	}
	return nil
}
