package service

import (
	"context"
	"log"
	"math"
	"strings"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// ListingInput is the body of a create request.
type ListingInput struct {
	Title        string
	Description  string
	Price        float64
	Location     string
	Availability *bool // nil means open for booking
}

// ListingPatch is a partial update; nil fields are left unchanged.
type ListingPatch struct {
	Title        *string
	Description  *string
	Price        *float64
	Location     *string
	Availability *bool
}

type ListingService interface {
	List(ctx context.Context) ([]model.Listing, error)
	Get(ctx context.Context, id uint64) (*model.Listing, error)
	Create(ctx context.Context, caller model.Caller, in ListingInput) (*model.Listing, error)
	Update(ctx context.Context, caller model.Caller, id uint64, patch ListingPatch) (*model.Listing, error)
	Delete(ctx context.Context, caller model.Caller, id uint64) error
}

type listingService struct {
	listings ListingRepository
	cache    CachePurger
	store    storeRunner
}

// NewListingService wires listing operations. cache may be nil.
func NewListingService(listings ListingRepository, cache CachePurger, opts StoreOptions) ListingService {
	return &listingService{listings: listings, cache: cache, store: newStoreRunner(opts)}
}

func validateListing(l *model.Listing) error {
	switch {
	case l.Title == "":
		return invalid("title is required")
	case l.Location == "":
		return invalid("location is required")
	case math.IsNaN(l.Price) || math.IsInf(l.Price, 0) || l.Price < 0:
		return invalid("price must be a non-negative number")
	case l.Price >= 1e8:
		return invalid("price is too large")
	}
	return nil
}

func requireHost(caller model.Caller) error {
	if caller.Role != model.RoleHost {
		return forbidden("host role required")
	}
	return nil
}

func (s *listingService) List(ctx context.Context) ([]model.Listing, error) {
	return fetch(ctx, s.store, "listings.list", s.listings.List)
}

func (s *listingService) Get(ctx context.Context, id uint64) (*model.Listing, error) {
	l, err := fetch(ctx, s.store, "listings.get", func(c context.Context) (*model.Listing, error) {
		return s.listings.GetByID(c, id)
	})
	return l, translate(err)
}

func (s *listingService) Create(ctx context.Context, caller model.Caller, in ListingInput) (*model.Listing, error) {
	if err := requireHost(caller); err != nil {
		return nil, err
	}
	l := &model.Listing{
		HostID:       caller.ID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Price:        model.RoundPrice(in.Price),
		Location:     strings.TrimSpace(in.Location),
		Availability: in.Availability == nil || *in.Availability,
	}
	if err := validateListing(l); err != nil {
		return nil, err
	}
	if err := s.store.run(ctx, "listings.create", func(c context.Context) error { return s.listings.Create(c, l) }); err != nil {
		return nil, translate(err)
	}
	s.purge(ctx)
	got, err := fetch(ctx, s.store, "listings.get", func(c context.Context) (*model.Listing, error) {
		return s.listings.GetByID(c, l.ID)
	})
	if err != nil {
		log.Printf("listings: reload %d after create: %v", l.ID, err)
		return l, nil
	}
	return got, nil
}

func (s *listingService) Update(ctx context.Context, caller model.Caller, id uint64, p ListingPatch) (*model.Listing, error) {
	if err := requireHost(caller); err != nil {
		return nil, err
	}
	l, err := fetch(ctx, s.store, "listings.get_owned", func(c context.Context) (*model.Listing, error) {
		return s.listings.GetByIDAndHost(c, id, caller.ID)
	})
	if err != nil {
		return nil, translate(err)
	}
	if p.Title != nil {
		l.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		l.Description = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		l.Price = model.RoundPrice(*p.Price)
	}
	if p.Location != nil {
		l.Location = strings.TrimSpace(*p.Location)
	}
	if p.Availability != nil {
		l.Availability = *p.Availability
	}
	if err := validateListing(l); err != nil {
		return nil, err
	}
	if err := s.store.run(ctx, "listings.update", func(c context.Context) error { return s.listings.Update(c, l) }); err != nil {
		return nil, translate(err)
	}
	s.purge(ctx)
	return l, nil
}

func (s *listingService) Delete(ctx context.Context, caller model.Caller, id uint64) error {
	if err := requireHost(caller); err != nil {
		return err
	}
	if err := s.store.run(ctx, "listings.delete", func(c context.Context) error {
		return s.listings.Delete(c, id, caller.ID)
	}); err != nil {
		return translate(err)
	}
	s.purge(ctx)
	return nil
}

func (s *listingService) purge(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Purge(ctx); err != nil {
		log.Printf("cache: purge after listing write failed: %v", err)
	}
}
