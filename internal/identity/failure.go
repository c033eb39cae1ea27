// File: internal/identity/failure.go
package identity

import (
	"errors"
	"fmt"
)

// ErrNoPrincipal is returned by CurrentPrincipal when the session token does not
// resolve to an authenticated identity (missing, expired, revoked or malformed).
var ErrNoPrincipal = errors.New("no authenticated principal")

// Failure is the error type returned by provider implementations. It carries the
// provider's error code when the upstream reported one; a Failure with an empty
// Code is the "unknown" variant and callers fall back to a generic message.
type Failure struct {
	Code string // e.g. "auth/wrong-password"; empty when the upstream gave no code
	Err  error
}

func (f *Failure) Error() string {
	if f.Code != "" {
		return fmt.Sprintf("provider failure %s: %v", f.Code, f.Err)
	}
	return fmt.Sprintf("provider failure: %v", f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Coded creates a Failure tagged with a provider error code.
func Coded(code string, err error) *Failure {
	if err == nil {
		err = errors.New(code)
	}
	return &Failure{Code: code, Err: err}
}

// Unknown creates an untagged Failure for errors without a recognizable code.
func Unknown(err error) *Failure {
	if err == nil {
		err = errors.New("unknown provider error")
	}
	return &Failure{Err: err}
}

// CodeOf extracts the provider error code from err, if err is (or wraps) a coded
// Failure.
func CodeOf(err error) (string, bool) {
	var f *Failure
	if errors.As(err, &f) && f.Code != "" {
		return f.Code, true
	}
	return "", false
}

// RawCode returns the provider error code when present, otherwise the error text.
// Used where the legacy API echoed the raw error alongside the message (logout).
func RawCode(err error) string {
	if code, ok := CodeOf(err); ok {
		return code
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
