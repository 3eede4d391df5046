package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// listingSelect joins the host so responses can embed a host snapshot.
const listingSelect = `SELECT l.id, l.host_id, l.title, l.description, l.price, l.location, l.availability,
	l.created_at, l.updated_at,
	h.id, h.first_name, h.last_name, h.username, h.email, h.role
	FROM listings l JOIN users h ON h.id = l.host_id`

// ListingRepo encapsulates all database queries related to listings.
type ListingRepo struct {
	db *sql.DB
}

func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

func scanListing(s rowScanner) (*model.Listing, error) {
	var l model.Listing
	var h model.User
	var role string
	if err := s.Scan(&l.ID, &l.HostID, &l.Title, &l.Description, &l.Price, &l.Location, &l.Availability,
		&l.CreatedAt, &l.UpdatedAt,
		&h.ID, &h.FirstName, &h.LastName, &h.Username, &h.Email, &role); err != nil {
		return nil, err
	}
	h.Role = model.Role(role)
	l.Host = &h
	return &l, nil
}

// Create inserts a listing and sets its ID. The host snapshot and
// timestamps come from a later GetByID.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO listings (host_id, title, description, price, location, availability) VALUES (?,?,?,?,?,?)",
		l.HostID, l.Title, l.Description, l.Price, l.Location, l.Availability)
	if err != nil {
		return writeFailure(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// GetByID fetches a listing regardless of owner.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (*model.Listing, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx, listingSelect+" WHERE l.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	return l, err
}

// GetByIDAndHost fetches a listing only if it belongs to hostID. A listing
// owned by someone else is reported as ErrListingNotFound so callers cannot
// probe for other hosts' listings.
func (r *ListingRepo) GetByIDAndHost(ctx context.Context, id, hostID uint64) (*model.Listing, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx, listingSelect+" WHERE l.id = ? AND l.host_id = ?", id, hostID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	return l, err
}

// List returns all listings, newest first.
func (r *ListingRepo) List(ctx context.Context) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx, listingSelect+" ORDER BY l.id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// Update writes the mutable columns of a listing owned by l.HostID and
// reloads it.
func (r *ListingRepo) Update(ctx context.Context, l *model.Listing) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE listings SET title = ?, description = ?, price = ?, location = ?, availability = ? WHERE id = ? AND host_id = ?",
		l.Title, l.Description, l.Price, l.Location, l.Availability, l.ID, l.HostID); err != nil {
		return err
	}
	got, err := r.GetByIDAndHost(ctx, l.ID, l.HostID)
	if err != nil {
		return err
	}
	*l = *got
	return nil
}

// Delete removes a listing owned by hostID. Its bookings cascade.
func (r *ListingRepo) Delete(ctx context.Context, id, hostID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ? AND host_id = ?", id, hostID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrListingNotFound
	}
	return nil
}
