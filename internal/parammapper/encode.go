package parammapper

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"

	internalerrors "github.com/icarus-sh/icarus-bridge/internal/errors"
	"github.com/icarus-sh/icarus-bridge/internal/idl"
	"github.com/icarus-sh/icarus-bridge/pkg/wiretypes"
)

// Encode translates args against desc into the IDL byte sequence the
// canister method expects. On any primary-path failure it falls back
// through the three-stage chain of spec §4.3. When debug is true, the
// primary failure and the fallback stage that succeeded are logged at
// debug level; failed fallback stages are not logged.
func Encode(desc Descriptor, args map[string]any, debug bool) ([]byte, error) {
	// Arity overflow is a structural error, not a coercion failure: it is
	// surfaced directly without attempting the fallback chain, per spec
	// §8's "too many parameters" boundary behavior (every fallback stage
	// would just re-encode the same oversized argument set).
	if desc.Style == StylePositional && len(desc.Params) >= MaxPositionalArity {
		return nil, internalerrors.New(domain, "Encode", internalerrors.ErrEncode, ErrTooManyParameters)
	}

	b, err := encodePrimary(desc, args)
	if err == nil {
		return b, nil
	}
	if debug {
		slog.Debug("parammapper: primary encode failed, attempting fallback", "error", err)
	}

	if b, fbErr := encodeAlphabeticalPositionalText(args); fbErr == nil {
		logFallback(debug, "alphabetical-positional-text", nil)
		return b, nil
	}

	if b, fbErr := encodeSingleText(args); fbErr == nil {
		logFallback(debug, "single-text", nil)
		return b, nil
	}

	b, fbErr := encodeJSONStringifyText(args)
	if fbErr != nil {
		return nil, internalerrors.New(domain, "Encode", internalerrors.ErrEncode, err).WithContext("fallback_error", fbErr.Error())
	}
	logFallback(debug, "json-stringify-text", nil)
	return b, nil
}

func logFallback(debug bool, stage string, err error) {
	if !debug {
		return
	}
	slog.Debug("parammapper: fallback encode succeeded", "stage", stage)
}

// encodePrimary encodes args under desc's own calling convention with no
// fallback.
func encodePrimary(desc Descriptor, args map[string]any) ([]byte, error) {
	switch desc.Style {
	case StyleEmpty:
		return idl.EncodeArgs(nil)
	case StyleRecord:
		return encodeRecordAsJSONText(args)
	case StylePositional:
		return encodePositional(desc.Params, args)
	default:
		return nil, fmt.Errorf("parammapper: unknown descriptor style %v", desc.Style)
	}
}

// encodePositional emits each named argument as its own IDL value,
// concatenated as k separate top-level arguments — never as a single
// k-tuple record — per spec §4.3/§8's load-bearing distinction.
func encodePositional(params []Param, args map[string]any) ([]byte, error) {
	if len(params) >= MaxPositionalArity {
		return nil, ErrTooManyParameters
	}

	idlArgs := make([]idl.Arg, len(params))
	for i, p := range params {
		v, present := args[p.Name]
		arg, err := coerce(p.WireType, v, present)
		if err != nil {
			return nil, fmt.Errorf("parammapper: argument %q: %w", p.Name, err)
		}
		idlArgs[i] = arg
	}
	return idl.EncodeArgs(idlArgs)
}

// encodeRecordAsJSONText emits the JSON object as a single IDL text value:
// the canister is expected to parse the JSON internally (spec §4.3).
func encodeRecordAsJSONText(args map[string]any) ([]byte, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return idl.EncodeArgs([]idl.Arg{{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text(string(raw))}})
}

// encodeAlphabeticalPositionalText is fallback stage (a): re-derive a
// descriptor from alphabetically-sorted keys as positional text.
func encodeAlphabeticalPositionalText(args map[string]any) ([]byte, error) {
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	sort.Strings(names)
	if len(names) >= MaxPositionalArity {
		return nil, ErrTooManyParameters
	}

	idlArgs := make([]idl.Arg, len(names))
	for i, name := range names {
		idlArgs[i] = idl.Arg{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text(stringify(args[name]))}
	}
	return idl.EncodeArgs(idlArgs)
}

// encodeSingleText is fallback stage (b): encode the whole value as one
// text argument via its string form.
func encodeSingleText(args map[string]any) ([]byte, error) {
	return idl.EncodeArgs([]idl.Arg{{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text(stringify(args))}})
}

// encodeJSONStringifyText is fallback stage (c), the last resort: encode
// the JSON stringification of the whole argument object as a single text.
func encodeJSONStringifyText(args map[string]any) ([]byte, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return idl.EncodeArgs([]idl.Arg{{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text(string(raw))}})
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

// coerce converts a JSON value (or its absence) to the idl.Arg matching
// wireType. Missing keys are encoded as the empty string of the declared
// type: empty text for text, zero for numerics, false for bool — never as
// opt-none unless the wire-type itself is "opt ...", per spec §8.
func coerce(wireType string, v any, present bool) (idl.Arg, error) {
	if strings.HasPrefix(wireType, wiretypes.OptPrefix) {
		inner := strings.TrimPrefix(wireType, wiretypes.OptPrefix)
		innerType, innerKind, err := kindOf(inner)
		if err != nil {
			return idl.Arg{}, err
		}
		t := idl.Type{Kind: idl.KindOpt, Elem: &innerType}
		if !present || v == nil {
			return idl.Arg{Type: t, Value: idl.None()}, nil
		}
		innerArg, err := coerce(inner, v, true)
		if err != nil {
			return idl.Arg{}, err
		}
		_ = innerKind
		return idl.Arg{Type: t, Value: idl.Some(innerArg.Value)}, nil
	}

	if strings.HasPrefix(wireType, wiretypes.VecPrefix) {
		inner := strings.TrimPrefix(wireType, wiretypes.VecPrefix)
		innerType, _, err := kindOf(inner)
		if err != nil {
			return idl.Arg{}, err
		}
		t := idl.Type{Kind: idl.KindVec, Elem: &innerType}
		list, _ := v.([]any)
		elems := make([]idl.Value, len(list))
		for i, item := range list {
			a, err := coerce(inner, item, true)
			if err != nil {
				return idl.Arg{}, err
			}
			elems[i] = a.Value
		}
		return idl.Arg{Type: t, Value: idl.Vec(elems)}, nil
	}

	t, kind, err := kindOf(wireType)
	if err != nil {
		return idl.Arg{}, err
	}

	switch kind {
	case idl.KindText:
		s := ""
		if present && v != nil {
			s = stringify(v)
			if sv, ok := v.(string); ok {
				s = sv
			}
		}
		return idl.Arg{Type: t, Value: idl.Text(s)}, nil
	case idl.KindBool:
		b := false
		if present {
			if bv, ok := v.(bool); ok {
				b = bv
			}
		}
		return idl.Arg{Type: t, Value: idl.Bool(b)}, nil
	case idl.KindNat, idl.KindNat8, idl.KindNat16, idl.KindNat32, idl.KindNat64,
		idl.KindInt, idl.KindInt8, idl.KindInt16, idl.KindInt32, idl.KindInt64:
		n := big.NewInt(0)
		if present && v != nil {
			var ok bool
			n, ok = toBigInt(v)
			if !ok {
				return idl.Arg{}, fmt.Errorf("value %v is not an integer for wire-type %s", v, wireType)
			}
		}
		return idl.Arg{Type: t, Value: idl.FixedWidth(kind, n)}, nil
	case idl.KindFloat32, idl.KindFloat64:
		f := 0.0
		if present && v != nil {
			switch fv := v.(type) {
			case float64:
				f = fv
			default:
				return idl.Arg{}, fmt.Errorf("value %v is not a float for wire-type %s", v, wireType)
			}
		}
		return idl.Arg{Type: t, Value: idl.Float(kind, f)}, nil
	case idl.KindPrincipal:
		var raw []byte
		if present {
			if sv, ok := v.(string); ok {
				raw = []byte(sv)
			}
		}
		return idl.Arg{Type: t, Value: idl.PrincipalValue(raw)}, nil
	default:
		return idl.Arg{}, fmt.Errorf("parammapper: unsupported wire-type %q", wireType)
	}
}

func toBigInt(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case float64:
		return big.NewInt(int64(n)), true
	case string:
		bi, ok := new(big.Int).SetString(n, 10)
		return bi, ok
	default:
		return nil, false
	}
}

func kindOf(wireType string) (idl.Type, idl.Kind, error) {
	var kind idl.Kind
	switch wireType {
	case wiretypes.Text:
		kind = idl.KindText
	case wiretypes.Bool:
		kind = idl.KindBool
	case wiretypes.Nat:
		kind = idl.KindNat
	case wiretypes.Nat8:
		kind = idl.KindNat8
	case wiretypes.Nat16:
		kind = idl.KindNat16
	case wiretypes.Nat32:
		kind = idl.KindNat32
	case wiretypes.Nat64:
		kind = idl.KindNat64
	case wiretypes.Int:
		kind = idl.KindInt
	case wiretypes.Int8:
		kind = idl.KindInt8
	case wiretypes.Int16:
		kind = idl.KindInt16
	case wiretypes.Int32:
		kind = idl.KindInt32
	case wiretypes.Int64:
		kind = idl.KindInt64
	case wiretypes.Float32:
		kind = idl.KindFloat32
	case wiretypes.Float64:
		kind = idl.KindFloat64
	case wiretypes.Principal:
		kind = idl.KindPrincipal
	default:
		return idl.Type{}, 0, fmt.Errorf("%w: %q", ErrUnknownWireType, wireType)
	}
	return idl.Type{Kind: kind}, kind, nil
}
