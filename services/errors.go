package services

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Constraint violations: the store rejected a write because an invariant would
// break. These abort the enclosing transaction and are safe to report to the
// caller, but not to retry.
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrSameAccount       = errors.New("source and destination accounts must differ")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountInactive   = errors.New("account is not active")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicatePhone    = errors.New("phone number already registered")
)

// InvariantError marks a broken internal precondition the ledger itself is
// supposed to guarantee. It indicates a bug, not a user error, and is logged
// separately from user-facing failures.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Detail)
}

// IsConstraint reports whether err is a user-correctable constraint violation.
func IsConstraint(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrSameAccount, ErrCustomerNotFound, ErrAccountNotFound,
		ErrAccountInactive, ErrInsufficientFunds, ErrDuplicatePhone,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err is a transient store failure — deadlock,
// serialization conflict, timeout, lost connection — that a clean re-run of
// the whole operation may clear.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03", "57P01":
			return true
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, gorm.ErrInvalidTransaction)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const maxAttempts = 3

// withRetry re-runs fn on retryable failures. fn must leave no partial state
// behind on error, so a re-run always starts from scratch.
func withRetry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}
