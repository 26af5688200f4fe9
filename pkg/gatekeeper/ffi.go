package gatekeeper

import (
	"errors"
	"strings"
)

// version is the opaque version string returned by Version.
const version = "vordr-gatekeeper/1"

// ErrNullByte is returned by the entry points below when the textual buffer
// contains a null byte. A language boundary using C strings would catch
// this as a failed CString::new conversion; Go strings tolerate embedded
// NULs natively, so this is an explicit pre-check instead.
var ErrNullByte = errors.New("gatekeeper: null byte in configuration text")

// Validator is the four-entry-point contract: the only shape that may
// cross a language boundary. A production build always selects Native;
// Stub exists only for development and must never be selected by default.
type Validator interface {
	Validate(text string) (int, error)
	ErrorMessage(code int) string
	Sanitise(text string, buf []byte) (int, error)
	Version() string
}

// Native is the real, always-enforcing Validator implementation. The
// boundary here is logical rather than a real language crossing, but the
// four-function shape and return-code contract are preserved so a caller
// cannot tell the difference from a real FFI boundary.
type Native struct{}

// Validate returns 0 on success, a rejection kind 1-5 otherwise, and any
// other non-zero value means InternalError.
func (Native) Validate(text string) (int, error) {
	if strings.ContainsRune(text, 0) {
		return 0, ErrNullByte
	}
	cfg, rej := parseText(text)
	if rej != nil {
		return int(rej.Kind), nil
	}
	if _, rej := Validate(cfg); rej != nil {
		return int(rej.Kind), nil
	}
	return int(Accepted), nil
}

func (Native) ErrorMessage(code int) string {
	return Kind(code).String()
}

// Sanitise writes the sanitised configuration into buf and returns the
// number of bytes written, or the negation of a rejection kind on failure.
// A buf too small for the result counts as a ParseError, negated, with buf
// left untouched.
func (Native) Sanitise(text string, buf []byte) (int, error) {
	if strings.ContainsRune(text, 0) {
		return 0, ErrNullByte
	}
	out, rej := sanitiseText(text)
	if rej != nil {
		return -int(rej.Kind), nil
	}
	if len(out) > len(buf) {
		return -int(ParseError), nil
	}
	return copy(buf, out), nil
}

func (Native) Version() string { return version }

// Stub always accepts and exists only as a development-only escape hatch.
// Selecting it is logged at Warn by the caller that wires it in
// (cmd/vordr); production builds must refuse it.
type Stub struct{}

func (Stub) Validate(text string) (int, error) {
	if strings.ContainsRune(text, 0) {
		return 0, ErrNullByte
	}
	return int(Accepted), nil
}

func (Stub) ErrorMessage(code int) string { return Kind(code).String() }

func (Stub) Sanitise(text string, buf []byte) (int, error) {
	if strings.ContainsRune(text, 0) {
		return 0, ErrNullByte
	}
	if len(text) > len(buf) {
		return -int(ParseError), nil
	}
	return copy(buf, text), nil
}

func (Stub) Version() string { return version + "-stub" }
