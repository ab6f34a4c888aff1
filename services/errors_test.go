package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	for _, err := range []error{
		ErrInvalidAmount, ErrSameAccount, ErrCustomerNotFound, ErrAccountNotFound,
		ErrAccountInactive, ErrInsufficientFunds, ErrDuplicatePhone,
	} {
		if !IsConstraint(err) {
			t.Errorf("%v should classify as constraint violation", err)
		}
		if IsRetryable(err) {
			t.Errorf("%v must not classify as retryable", err)
		}
	}

	wrapped := fmt.Errorf("transfer failed: %w", ErrInsufficientFunds)
	if !IsConstraint(wrapped) {
		t.Error("wrapped constraint error not recognized")
	}

	if !IsRetryable(context.DeadlineExceeded) {
		t.Error("timeout should be retryable")
	}
	if !IsRetryable(&pgconn.PgError{Code: "40001"}) {
		t.Error("serialization failure should be retryable")
	}
	if !IsRetryable(&pgconn.PgError{Code: "40P01"}) {
		t.Error("deadlock should be retryable")
	}
	if IsRetryable(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation must not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil error must not be retryable")
	}

	inv := &InvariantError{Op: "takeLoan", Detail: "no LOAN account"}
	if IsConstraint(inv) || IsRetryable(inv) {
		t.Error("invariant violations are neither constraint nor retryable")
	}
	var target *InvariantError
	if !errors.As(fmt.Errorf("op: %w", inv), &target) {
		t.Error("InvariantError should unwrap with errors.As")
	}
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := withRetry(func() error {
		calls++
		return ErrInsufficientFunds
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt for constraint error, got %d", calls)
	}
}

func TestWithRetryRetriesTransientFailures(t *testing.T) {
	calls := 0
	err := withRetry(func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}

	calls = 0
	err = withRetry(func() error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})
	if err == nil {
		t.Fatal("expected error when every attempt fails")
	}
	if calls != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, calls)
	}
}
