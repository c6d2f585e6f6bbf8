package canister

import "errors"

// ErrNoClient indicates a call was attempted on a Client built with a nil
// transport. cmd/icarus-bridge resolves an identity and installs its
// transport before serving, and Swap always replaces one transport with
// another under the write lock, so a running bridge does not observe it.
var ErrNoClient = errors.New("canister: no signed client installed")

// ErrBadReplyArity indicates a reply carried more than one top-level IDL
// argument; the bridge expects methods to return at most one value.
var ErrBadReplyArity = errors.New("canister: reply has more than one argument")
