package identity

import "errors"

// Sentinel errors for identity resolution. Wrapped with internalerrors.New
// at the point each crosses the package boundary.
var (
	// ErrHelperNotFound indicates the identity-helper binary (e.g. dfx) is
	// not on PATH.
	ErrHelperNotFound = errors.New("identity helper not found")

	// ErrNoActiveIdentity indicates the helper ran but reported no active
	// identity name.
	ErrNoActiveIdentity = errors.New("no active identity")

	// ErrKeyFileMissing indicates the PEM key file for the named identity
	// does not exist under the identity home.
	ErrKeyFileMissing = errors.New("identity key file missing")

	// ErrUnsupportedKeyMaterial indicates the PEM file parsed as neither
	// secp256k1 nor ed25519.
	ErrUnsupportedKeyMaterial = errors.New("unsupported key material")

	// ErrTrustRootUnreachable indicates the mandatory trust-root fetch for
	// a non-production endpoint failed.
	ErrTrustRootUnreachable = errors.New("trust root unreachable")
)
