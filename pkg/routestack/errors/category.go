// Package errors classifies event handler failures and retries the ones a
// retry can fix.
//
// A handler that times out or reports Transient is retried under its
// RetryConfig. Anything else fails on the first attempt and goes straight to
// the dead letter queue.
package errors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Category says whether a failed handler call is worth repeating.
type Category int

const (
	// CategoryTransient failures are retried.
	CategoryTransient Category = iota

	// CategoryPermanent failures are not.
	CategoryPermanent
)

func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	}
	return "unknown"
}

// CategorizedError is a failure tagged with its Category.
type CategorizedError struct {
	Err      error
	Category Category
	Op       string // what was being attempted, may be empty
	Attempts int    // filled in by the retry loop
}

func (e *CategorizedError) Error() string {
	msg := e.Err.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Attempts > 0 {
		return fmt.Sprintf("%s (%s, %d attempts)", msg, e.Category, e.Attempts)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Category)
}

func (e *CategorizedError) Unwrap() error { return e.Err }

// Transient marks err as retryable.
func Transient(err error, op string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryTransient, Op: op}
}

// Permanent marks err as not retryable.
func Permanent(err error, op string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryPermanent, Op: op}
}

// TimeoutError reports a handler that ran past its deadline.
type TimeoutError struct {
	Handler string
	After   time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("handler %s timed out after %s", e.Handler, e.After)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Categorize reports how err should be handled. Explicit categories win;
// timeouts are transient; everything else, nil included, is permanent.
func Categorize(err error) Category {
	var ce *CategorizedError
	var te *TimeoutError
	switch {
	case err == nil:
		return CategoryPermanent
	case errors.As(err, &ce):
		return ce.Category
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded):
		return CategoryTransient
	}
	return CategoryPermanent
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}
