// Package httperror carries an HTTP status code alongside an error so that
// adapter and registry failures keep their upstream status all the way to
// the transport layer.
package httperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Error struct {
	Status int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Reason)
}

func New(status int, reason string) *Error {
	return &Error{Status: status, Reason: reason}
}

func BadRequest(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Reason: fmt.Sprintf(format, args...)}
}

// FromResponse normalizes a non-2xx upstream response into an Error with
// the upstream's own status text as the reason.
func FromResponse(resp *http.Response) *Error {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Reason: reason}
}

// StatusOf extracts the status code from err, defaulting to 500 when err is
// not an *Error.
func StatusOf(err error) int {
	var he *Error
	if errors.As(err, &he) {
		return he.Status
	}
	return http.StatusInternalServerError
}
