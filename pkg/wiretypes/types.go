// Package wiretypes provides shared constants describing the bridge's
// wire-level conventions: IDL wire-type names, the input-schema calling
// convention extension, and well-known canister method names.
package wiretypes

// Wire-type names recognized in a positional calling-convention descriptor,
// either explicitly via x-icarus-params or inferred during auto-detection.
const (
	Text      = "text"
	Bool      = "bool"
	Nat       = "nat"
	Nat8      = "nat8"
	Nat16     = "nat16"
	Nat32     = "nat32"
	Nat64     = "nat64"
	Int       = "int"
	Int8      = "int8"
	Int16     = "int16"
	Int32     = "int32"
	Int64     = "int64"
	Float32   = "float32"
	Float64   = "float64"
	Principal = "principal"
)

// Composite wire-type prefixes. A composite type name is "vec <T>" or
// "opt <T>" where T is any recognized wire-type name, including another
// composite.
const (
	VecPrefix = "vec "
	OptPrefix = "opt "
)

// ParamsExtensionKey is the reserved JSON Schema extension key carrying an
// explicit calling-convention hint.
const ParamsExtensionKey = "x-icarus-params"

// Calling-convention styles recognized under the params extension key.
const (
	StylePositional = "positional"
	StyleRecord     = "record"
	StyleEmpty      = "empty"
)

// ListToolsMethod is the well-known canister method the bridge invokes for
// catalog discovery.
const ListToolsMethod = "list_tools"

// StreamArgKey is the reserved arguments key controlling the streaming mode
// of a tools/call response. It is stripped before argument encoding.
const StreamArgKey = "_stream"

// StreamProgress is the string value of StreamArgKey that requests a
// synthetic progress-step envelope instead of the basic chunker.
const StreamProgress = "progress"

// Streaming envelope discriminator values written into a response body.
const (
	StreamingChunked  = "chunked"
	StreamingProgress = "progress"
)
