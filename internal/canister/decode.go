package canister

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/aviate-labs/agent-go/principal"

	internalerrors "github.com/icarus-sh/icarus-bridge/internal/errors"
	"github.com/icarus-sh/icarus-bridge/internal/idl"
)

// Decode parses reply as an IDL argument list and projects the single
// expected value to a generic JSON-able tree, per spec §4.2's projection
// table. An empty argument list projects to nil (JSON null), matching
// "Expected arity is one; if zero, return JSON null."
func Decode(reply []byte) (any, error) {
	values, err := idl.DecodeArgs(reply)
	if err != nil {
		return nil, internalerrors.New(domain, "Decode", internalerrors.ErrDecode, err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	if len(values) > 1 {
		return nil, internalerrors.New(domain, "Decode", internalerrors.ErrDecode, ErrBadReplyArity).WithContext("arity", len(values))
	}
	return project(values[0]), nil
}

// project recursively maps a dynamic idl.Value to its JSON projection,
// following the table in spec §4.2.
func project(v idl.Value) any {
	switch v.Kind {
	case idl.KindNull, idl.KindReserved, idl.KindEmpty:
		return nil
	case idl.KindBool:
		return v.Bool
	case idl.KindNat, idl.KindNat8, idl.KindNat16, idl.KindNat32, idl.KindNat64,
		idl.KindInt, idl.KindInt8, idl.KindInt16, idl.KindInt32, idl.KindInt64:
		return projectInt(v.Int)
	case idl.KindFloat32, idl.KindFloat64:
		return v.Float
	case idl.KindText:
		return v.Text
	case idl.KindOpt:
		if v.Elem == nil {
			return nil
		}
		return project(*v.Elem)
	case idl.KindVec:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = project(e)
		}
		return out
	case idl.KindRecord:
		out := make(map[string]any, len(v.Fields))
		for _, f := range v.Fields {
			out[fieldKey(f)] = project(f.Value)
		}
		return out
	case idl.KindVariant:
		if len(v.Fields) != 1 {
			return nil
		}
		f := v.Fields[0]
		return map[string]any{fieldKey(f): project(f.Value)}
	case idl.KindPrincipal:
		return principal.Principal{Raw: v.Principal}.String()
	case idl.KindService:
		if v.FuncRef == nil {
			return ""
		}
		return principal.Principal{Raw: v.FuncRef.Principal}.String()
	case idl.KindFunc:
		if v.FuncRef == nil {
			return ""
		}
		return principal.Principal{Raw: v.FuncRef.Principal}.String() + "::" + v.FuncRef.Method
	default:
		return nil
	}
}

// fieldKey stringifies a record/variant field's identity: its Name when
// known (never true on the decode side, since the wire format only ever
// transmits the 32-bit field-id hash — see idl.Type doc), then a reverse
// lookup against knownLabelByHash for labels the bridge has reason to
// recognize by name, otherwise the numeric id.
func fieldKey(f idl.FieldValue) string {
	if f.Name != "" {
		return f.Name
	}
	if name, ok := knownLabelByHash[f.ID]; ok {
		return name
	}
	return strconv.FormatUint(uint64(f.ID), 10)
}

// candidHash reproduces the identifier hash Candid uses for record and
// variant field ids: each byte folds into a running 32-bit accumulator as
// hash = hash*223 + byte. The wire format carries only this hash, never the
// source identifier, so recovering a name requires hashing every label the
// bridge cares about and matching by id (see fieldKey).
func candidHash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*223 + uint32(name[i])
	}
	return h
}

// knownLabelByHash maps field-id hashes back to the handful of variant
// labels the bridge's result-envelope convention (spec §4.2) depends on by
// name: "Ok" and "Err". Without this, a real `variant { Ok; Err }` reply
// decodes to numeric keys like {"17724": ...} and UnwrapResult never fires.
var knownLabelByHash = map[uint32]string{
	candidHash("Ok"):  "Ok",
	candidHash("Err"): "Err",
}

// projectInt renders a big.Int as a JSON number when it fits in an int64,
// otherwise as a decimal string, per spec §4.2.
func projectInt(n *big.Int) any {
	if n == nil {
		return 0
	}
	if n.IsInt64() {
		return n.Int64()
	}
	return n.String()
}

// UnwrapResult applies the Ok/Err result-envelope convention: if value is a
// single-key map whose key is exactly "Ok" or "Err", it is unwrapped.
// payload is the success value (Ok's inner value, or the original value
// when no envelope was present); isErr and errMessage are set only for an
// Err envelope. Matches original_source's two-stage shape (decode once to
// a JSON tree, then a plain JSON inspection for the envelope) rather than
// unwrapping at the IDL layer.
func UnwrapResult(value any) (payload any, isErr bool, errMessage string) {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return value, false, ""
	}
	if ok, present := m["Ok"]; present {
		return ok, false, ""
	}
	if errVal, present := m["Err"]; present {
		return nil, true, stringifyErr(errVal)
	}
	return value, false, ""
}

func stringifyErr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return anyToString(v)
	}
}

func anyToString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	// Best effort for composite error payloads (e.g. a variant-shaped
	// error record): render via the same numeric formatting as the rest of
	// the projection rather than Go's default %v, to avoid surprising
	// "map[...]" text reaching the MCP client.
	return formatAny(v)
}

func formatAny(v any) string {
	switch t := v.(type) {
	case map[string]any:
		s := "{"
		first := true
		for k, val := range t {
			if !first {
				s += ", "
			}
			first = false
			s += k + ": " + formatAny(val)
		}
		return s + "}"
	case []any:
		s := "["
		for i, val := range t {
			if i > 0 {
				s += ", "
			}
			s += formatAny(val)
		}
		return s + "]"
	case float64:
		if math.Trunc(t) == t {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
