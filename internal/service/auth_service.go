package service

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/repository"
	"github.com/iliyamo/rental-marketplace/internal/utils"
)

// RegisterInput is the self-service sign-up form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	UserType        string // Guest | Host, empty means Guest
}

// LoginResult is a verified user with a fresh access token.
type LoginResult struct {
	User  *model.User
	Token utils.AccessToken
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

type authService struct {
	users      UserRepository
	tokens     *utils.TokenService
	bcryptCost int
	store      storeRunner
	now        Clock
}

func NewAuthService(users UserRepository, tokens *utils.TokenService, bcryptCost int, opts StoreOptions) AuthService {
	return &authService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		store:      newStoreRunner(opts),
		now:        time.Now,
	}
}

var errInvalidCredentials = fail(ErrUnauthenticated, "invalid credentials")

// registrationRole applies the sign-up policy: Admin is never
// self-assigned and anything other than Guest/Host is rejected.
func registrationRole(userType string) (model.Role, error) {
	if strings.TrimSpace(userType) == "" {
		return model.RoleGuest, nil
	}
	r, err := model.ParseRole(userType)
	if err != nil || r == model.RoleAdmin {
		return "", invalid("userType must be Guest or Host")
	}
	return r, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case in.Username == "":
		return nil, invalid("username is required")
	case in.Email == "":
		return nil, invalid("email is required")
	case in.Password == "":
		return nil, invalid("password is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, invalid("email is not valid")
	}
	if in.Password != in.ConfirmPassword {
		return nil, invalid("passwords do not match")
	}
	role, err := registrationRole(in.UserType)
	if err != nil {
		return nil, err
	}

	taken, err := fetch(ctx, s.store, "users.exists", func(c context.Context) (bool, error) {
		return s.users.ExistsUsernameOrEmail(c, in.Username, in.Email)
	})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("username or email already exists")
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.run(ctx, "users.create", func(c context.Context) error { return s.users.Create(c, u) }); err != nil {
		return nil, translate(err)
	}
	got, err := fetch(ctx, s.store, "users.get", func(c context.Context) (*model.User, error) {
		return s.users.GetByID(c, u.ID)
	})
	if err != nil {
		log.Printf("users: reload %d after register: %v", u.ID, err)
		return u, nil
	}
	return got, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalid("username and password are required")
	}
	u, err := fetch(ctx, s.store, "users.by_username", func(c context.Context) (*model.User, error) {
		return s.users.GetByUsername(c, username)
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, errInvalidCredentials
	}
	tok, err := s.tokens.Issue(u.ID, u.Username, u.Role, s.now())
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: u, Token: tok}, nil
}
