// Package errors provides fetch failure types for the harvester.
//
// Failures are classified for logging and metrics only; every class is
// handled the same way by the crawl loop.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorType categorizes fetch failures.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Timeout represents page-load timeouts.
	Timeout
	// Navigation represents navigation errors reported by the browser.
	Navigation
	// DNS represents host resolution failures.
	DNS
	// Browser represents browser/CDP errors.
	Browser
	// Cancelled represents context cancellation.
	Cancelled
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case Timeout:
		return "timeout"
	case Navigation:
		return "navigation"
	case DNS:
		return "dns"
	case Browser:
		return "browser"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// FetchError represents a categorized page fetch failure.
type FetchError struct {
	Type      ErrorType
	URL       string
	Operation string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*FetchError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewFetchError creates a new FetchError.
func NewFetchError(errType ErrorType, url, operation, message string, cause error) *FetchError {
	return &FetchError{
		Type:      errType,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(url, operation string, cause error) *FetchError {
	return NewFetchError(Timeout, url, operation, "page load timed out", cause)
}

// NewNavigationError creates a navigation error.
func NewNavigationError(url, operation string, cause error) *FetchError {
	return NewFetchError(Navigation, url, operation, "navigation failed", cause)
}

// NewDNSError creates a DNS error.
func NewDNSError(url, operation string, cause error) *FetchError {
	return NewFetchError(DNS, url, operation, "host could not be resolved", cause)
}

// NewBrowserError creates a browser error.
func NewBrowserError(url, operation string, cause error) *FetchError {
	return NewFetchError(Browser, url, operation, "browser operation failed", cause)
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(url, operation string) *FetchError {
	return NewFetchError(Cancelled, url, operation, "operation cancelled", nil)
}

// Categorize determines the error type from a generic error.
func Categorize(err error, url string) *FetchError {
	if err == nil {
		return nil
	}

	// Already a FetchError
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	if isTimeout(err) {
		return NewTimeoutError(url, "fetch", err)
	}

	if errors.Is(err, context.Canceled) {
		return NewCancelledError(url, "fetch")
	}

	if isDNSError(err) {
		return NewDNSError(url, "fetch", err)
	}

	if isNavigationError(err) {
		return NewNavigationError(url, "fetch", err)
	}

	return NewFetchError(Unknown, url, "fetch", err.Error(), err)
}

// isTimeout checks if an error is a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "ERR_TIMED_OUT")
}

// isDNSError checks if an error is a name resolution failure.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "ERR_NAME_NOT_RESOLVED") ||
		strings.Contains(errStr, "no such host")
}

// isNavigationError checks if an error was reported by the browser network stack.
func isNavigationError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "net::ERR_") ||
		strings.Contains(errStr, "navigation failed") ||
		strings.Contains(errStr, "connection refused")
}
