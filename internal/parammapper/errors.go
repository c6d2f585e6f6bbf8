package parammapper

import "errors"

// Sentinel errors for descriptor derivation and encoding.
var (
	// ErrUnknownWireType indicates an x-icarus-params "types" entry names a
	// wire-type parammapper does not recognize. Raised at descriptor build
	// time, per spec §4.3 point 1, not at call time.
	ErrUnknownWireType = errors.New("parammapper: unknown wire type")

	// ErrMissingOrder indicates a positional-style hint omitted "order".
	ErrMissingOrder = errors.New("parammapper: positional style requires order")

	// ErrTooManyParameters indicates a positional call would exceed the
	// bridge's supported arity (spec §7 EncodeError, >=8 arguments).
	ErrTooManyParameters = errors.New("parammapper: too many parameters")

	errNotAStringList = errors.New("parammapper: expected a list of strings")
)
