package service

import (
	"context"
	"log"
	"net/mail"
	"strings"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// UserPatch carries the fields a caller wants to change. Empty strings
// leave the stored value untouched.
type UserPatch struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Role      string
}

type UserService interface {
	List(ctx context.Context, caller model.Caller) ([]model.User, error)
	Get(ctx context.Context, caller model.Caller, id uint64) (*model.User, error)
	Update(ctx context.Context, caller model.Caller, id uint64, patch UserPatch) (*model.User, error)
	Delete(ctx context.Context, caller model.Caller, id uint64) error
}

type userService struct {
	users UserRepository
	cache CachePurger
	store storeRunner
}

// NewUserService wires the user operations. cache may be nil.
func NewUserService(users UserRepository, cache CachePurger, opts StoreOptions) UserService {
	return &userService{users: users, cache: cache, store: newStoreRunner(opts)}
}

// selfOrAdmin rejects callers acting on another account. The check runs
// before any lookup so the answer never depends on whether id exists.
func selfOrAdmin(caller model.Caller, id uint64) error {
	if caller.Is(id) || caller.IsAdmin() {
		return nil
	}
	return forbidden("you may only access your own account")
}

func (s *userService) List(ctx context.Context, caller model.Caller) ([]model.User, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("admin role required")
	}
	users, err := fetch(ctx, s.store, "users.list", s.users.List)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, notFound("no users found")
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, caller model.Caller, id uint64) (*model.User, error) {
	if err := selfOrAdmin(caller, id); err != nil {
		return nil, err
	}
	u, err := fetch(ctx, s.store, "users.get", func(c context.Context) (*model.User, error) {
		return s.users.GetByID(c, id)
	})
	return u, translate(err)
}

func (s *userService) Update(ctx context.Context, caller model.Caller, id uint64, p UserPatch) (*model.User, error) {
	if err := selfOrAdmin(caller, id); err != nil {
		return nil, err
	}
	u, err := fetch(ctx, s.store, "users.get", func(c context.Context) (*model.User, error) {
		return s.users.GetByID(c, id)
	})
	if err != nil {
		return nil, translate(err)
	}

	if v := strings.TrimSpace(p.FirstName); v != "" {
		u.FirstName = v
	}
	if v := strings.TrimSpace(p.LastName); v != "" {
		u.LastName = v
	}
	if v := strings.TrimSpace(p.Username); v != "" {
		u.Username = v
	}
	if v := strings.ToLower(strings.TrimSpace(p.Email)); v != "" {
		if _, err := mail.ParseAddress(v); err != nil {
			return nil, invalid("email is not valid")
		}
		u.Email = v
	}
	if strings.TrimSpace(p.Role) != "" {
		role, err := model.ParseRole(p.Role)
		if err != nil {
			return nil, invalid("role must be Guest, Host or Admin")
		}
		if role != u.Role && !caller.IsAdmin() {
			return nil, forbidden("only an admin may change a role")
		}
		u.Role = role
	}

	if err := s.store.run(ctx, "users.update", func(c context.Context) error { return s.users.Update(c, u) }); err != nil {
		return nil, translate(err)
	}
	s.purge(ctx)
	return u, nil
}

func (s *userService) Delete(ctx context.Context, caller model.Caller, id uint64) error {
	if err := selfOrAdmin(caller, id); err != nil {
		return err
	}
	if err := s.store.run(ctx, "users.delete", func(c context.Context) error { return s.users.Delete(c, id) }); err != nil {
		return translate(err)
	}
	s.purge(ctx)
	return nil
}

// purge drops cached listing pages, which embed host snapshots.
func (s *userService) purge(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Purge(ctx); err != nil {
		log.Printf("cache: purge after user write failed: %v", err)
	}
}
