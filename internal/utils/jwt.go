package utils // package utils provides helper functions for token creation and hashing

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// ErrInvalidToken is returned for any token that fails validation:
// malformed, wrong algorithm, bad signature, wrong issuer/audience,
// expired, or carrying an unknown role.
var ErrInvalidToken = errors.New("invalid token")

// RoleWhenClaimAbsent is the role assumed for a token that carries no
// role claim at all.
const RoleWhenClaimAbsent = model.RoleGuest

// DefaultTokenTTL is the lifetime of an issued access token.
const DefaultTokenTTL = time.Hour

// AccessToken is a signed JWT along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims are the identity claims carried by an access token.
type Claims struct {
	UserID   uint64
	Username string
	Role     model.Role
}

type tokenClaims struct {
	UserID   uint64 `json:"uid"`
	Username string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 access tokens bound to a fixed
// issuer and audience.
type TokenService struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewTokenService builds a TokenService from a base64 signing key. Empty
// key, issuer or audience is a configuration error.
func NewTokenService(b64Key, issuer, audience string, ttl time.Duration) (*TokenService, error) {
	if b64Key == "" || issuer == "" || audience == "" {
		return nil, errors.New("jwt: key, issuer and audience are required")
	}
	key, err := base64.StdEncoding.DecodeString(b64Key)
	if err != nil {
		return nil, fmt.Errorf("jwt: key is not valid base64: %w", err)
	}
	if len(key) == 0 {
		return nil, errors.New("jwt: key decodes to zero bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{key: key, issuer: issuer, audience: audience, ttl: ttl}, nil
}

// TTL returns the lifetime applied to issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for the user that expires at now+TTL.
func (s *TokenService) Issue(userID uint64, username string, role model.Role, now time.Time) (AccessToken, error) {
	now = now.UTC()
	exp := now.Add(s.ttl)
	claims := tokenClaims{
		UserID:   userID,
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.key)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Validate checks signature, algorithm, issuer, audience and expiry against
// now and returns the identity claims.
func (s *TokenService) Validate(raw string, now time.Time) (Claims, error) {
	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	if tc.UserID == 0 {
		id, perr := strconv.ParseUint(tc.Subject, 10, 64)
		if perr != nil || id == 0 {
			return Claims{}, ErrInvalidToken
		}
		tc.UserID = id
	}
	role := RoleWhenClaimAbsent
	if tc.Role != "" {
		r, perr := model.ParseRole(tc.Role)
		if perr != nil {
			return Claims{}, ErrInvalidToken
		}
		role = r
	}
	return Claims{UserID: tc.UserID, Username: tc.Username, Role: role}, nil
}
