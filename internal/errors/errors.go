// Package errors provides domain-specific error handling infrastructure
// for the bridge.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the bridge's error taxonomy. Each corresponds to one
// of the eight error kinds the bridge surfaces to callers or operators.
var (
	// ErrConfig indicates a fatal startup configuration problem: identity
	// helper not found, endpoint URL malformed, signature family unsupported.
	ErrConfig = errors.New("config error")

	// ErrIdentity indicates the active identity is unknown, its key file is
	// missing, or its key material is unparseable.
	ErrIdentity = errors.New("identity error")

	// ErrDiscovery indicates the tool catalog could not be fetched: method
	// absent, malformed JSON, or timeout.
	ErrDiscovery = errors.New("discovery error")

	// ErrInvocation indicates a tool name unknown to the catalog.
	ErrInvocation = errors.New("invocation error")

	// ErrEncode indicates a JSON argument could not be coerced to its
	// declared wire-type, or the call exceeds the supported arity.
	ErrEncode = errors.New("encode error")

	// ErrTransport indicates a CRPC call failed at the network layer.
	ErrTransport = errors.New("transport error")

	// ErrDecode indicates an IDL reply could not be parsed.
	ErrDecode = errors.New("decode error")

	// ErrCaller indicates the canister itself returned Err(_).
	ErrCaller = errors.New("caller error")
)

// DomainError represents a domain-specific error with context. It wraps an
// underlying error and attaches the subsystem, operation, and kind that
// produced it.
type DomainError struct {
	// Domain identifies the subsystem where the error occurred (e.g., "identity", "canister").
	Domain string

	// Op identifies the operation that failed (e.g., "Resolve", "Query").
	Op string

	// Kind is the sentinel error that categorizes this error.
	Kind error

	// Err is the underlying wrapped error, if any.
	Err error

	// Context provides additional key-value pairs for debugging.
	Context map[string]interface{}
}

// New creates a new DomainError.
func New(domain, op string, kind, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Err:     err,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %v: %v", e.Domain, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.Domain, e.Op, e.Kind)
}

// Unwrap returns the underlying wrapped error, so errors.Is/errors.As work.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target error, checking both the
// Kind field and the wrapped error chain.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// WithContext adds a key-value pair to the error's context and returns the
// error, allowing chaining at the construction site.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}
