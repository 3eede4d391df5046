package service

import (
	"errors"

	"github.com/iliyamo/rental-marketplace/internal/repository"
)

// Error kinds. Every error a service returns either wraps one of these or
// is an unexpected store failure.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("store temporarily unavailable")
)

// Error is a classified failure with a client-safe message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, msg string) error { return &Error{Kind: kind, Msg: msg} }

func invalid(msg string) error   { return fail(ErrValidation, msg) }
func forbidden(msg string) error { return fail(ErrForbidden, msg) }
func notFound(msg string) error  { return fail(ErrNotFound, msg) }
func conflict(msg string) error  { return fail(ErrConflict, msg) }

// translate maps repository sentinels onto the service error kinds.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUserNotFound):
		return notFound("user not found")
	case errors.Is(err, repository.ErrListingNotFound):
		return notFound("listing not found")
	case errors.Is(err, repository.ErrBookingNotFound):
		return notFound("booking not found")
	case errors.Is(err, repository.ErrUsernameExists):
		return conflict("username already exists")
	case errors.Is(err, repository.ErrEmailExists):
		return conflict("email already exists")
	case errors.Is(err, repository.ErrOverlap):
		return conflict("the requested dates overlap an existing booking")
	case errors.Is(err, repository.ErrListingUnavailable):
		return invalid("listing is not available for booking")
	case errors.Is(err, repository.ErrStaleStatus):
		return conflict("booking status was changed by another request")
	case errors.Is(err, repository.ErrOutcomeUnknown):
		return fail(ErrUnavailable, "the request may have been applied; check before retrying")
	}
	return err
}
