// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios without inspecting
// driver errors itself.
package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrListingNotFound = errors.New("listing not found")
	ErrBookingNotFound = errors.New("booking not found")

	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

// ErrOverlap is returned when a new booking's dates intersect a booking
// on the same listing that has not been canceled.
var ErrOverlap = errors.New("dates overlap an existing booking")

// ErrListingUnavailable is returned when the listing's availability flag
// is off at booking time.
var ErrListingUnavailable = errors.New("listing is not open for booking")

// ErrStaleStatus is returned by a compare-and-set status update when the
// row no longer holds the expected status.
var ErrStaleStatus = errors.New("booking status changed concurrently")

// ErrOutcomeUnknown is returned when a write failed in a way that leaves
// its effect unknown, such as a lost connection during COMMIT. It is never
// transient: running the write again could apply it twice.
var ErrOutcomeUnknown = errors.New("write outcome unknown")

// MySQL server error numbers the store layer reacts to.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// IsTransient reports whether err is worth a single retry: a dropped
// connection, a store call that ran out of time, or an InnoDB deadlock /
// lock wait timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDeadlock || me.Number == errLockWaitTimeout
	}
	return false
}

// duplicateKey maps a duplicate-entry error to the matching sentinel, or
// returns nil when err is not a duplicate.
func duplicateKey(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != errDupEntry {
		return nil
	}
	if strings.Contains(me.Message, "uq_users_username") {
		return ErrUsernameExists
	}
	return ErrEmailExists
}

// uncertain wraps err as ErrOutcomeUnknown. The cause is kept as text only
// so IsTransient no longer matches it.
func uncertain(err error) error {
	return fmt.Errorf("%w: %v", ErrOutcomeUnknown, err)
}

// writeFailure classifies an error from a statement that commits on its
// own. driver.ErrBadConn means the statement was never sent and a server
// error means it was rejected; both stay as they are. Any other transient
// failure may have happened after the row was written.
func writeFailure(err error) error {
	if errors.Is(err, driver.ErrBadConn) {
		return err
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return err
	}
	if IsTransient(err) {
		return uncertain(err)
	}
	return err
}
