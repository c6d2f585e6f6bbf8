// Package parammapper implements the bridge's Parameter Mapper (C3): it
// derives a calling-convention descriptor from a tool's JSON Schema input
// schema and uses that descriptor to translate a JSON argument object into
// the IDL byte sequence the target canister method expects.
package parammapper

import (
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	internalerrors "github.com/icarus-sh/icarus-bridge/internal/errors"
	"github.com/icarus-sh/icarus-bridge/pkg/wiretypes"
)

const domain = "parammapper"

// AutoDetectMaxProperties is the fixed threshold (spec §4.3 point 4, §9
// Open Question 1) at or below which auto-detection picks Positional over
// Record. Kept as a constant rather than a runtime knob — see DESIGN.md.
const AutoDetectMaxProperties = 5

// MaxPositionalArity is the arity cap from spec §7 EncodeError: eight or
// more positional arguments is a fixed "too many parameters" error.
const MaxPositionalArity = 8

// Style identifies which of the three calling-convention shapes a
// Descriptor carries.
type Style int

const (
	StylePositional Style = iota
	StyleRecord
	StyleEmpty
)

// Param is one (name, wire-type) pair in a Positional descriptor's order.
type Param struct {
	Name     string
	WireType string
}

// Descriptor is the calling-convention descriptor of spec §3: Positional,
// Record, or Empty. Cached per tool name by internal/catalog once derived.
type Descriptor struct {
	Style  Style
	Params []Param // Positional only
}

// Derive produces a Descriptor from a tool's inputSchema, per spec §4.3:
// an explicit x-icarus-params hint takes precedence; otherwise the schema
// is auto-detected by property count.
func Derive(schema map[string]any) (Descriptor, error) {
	if err := validateSchemaShape(schema); err != nil {
		return Descriptor{}, internalerrors.New(domain, "Derive", internalerrors.ErrConfig, err)
	}

	if hint, ok := schema[wiretypes.ParamsExtensionKey].(map[string]any); ok {
		return deriveFromHint(hint)
	}

	props, _ := schema["properties"].(map[string]any)
	if len(props) == 0 {
		return Descriptor{Style: StyleEmpty}, nil
	}
	if len(props) <= AutoDetectMaxProperties {
		return autoDetectPositional(schema, props), nil
	}
	return Descriptor{Style: StyleRecord}, nil
}

func deriveFromHint(hint map[string]any) (Descriptor, error) {
	style, _ := hint["style"].(string)
	switch style {
	case wiretypes.StyleEmpty:
		return Descriptor{Style: StyleEmpty}, nil
	case wiretypes.StyleRecord:
		return Descriptor{Style: StyleRecord}, nil
	case wiretypes.StylePositional:
		order, err := toStringSlice(hint["order"])
		if err != nil || len(order) == 0 {
			return Descriptor{}, internalerrors.New(domain, "deriveFromHint", internalerrors.ErrConfig, ErrMissingOrder)
		}
		types, _ := toStringSlice(hint["types"])

		params := make([]Param, len(order))
		for i, name := range order {
			wt := wiretypes.Text
			if i < len(types) {
				wt = types[i]
			}
			if !isKnownWireType(wt) {
				return Descriptor{}, internalerrors.New(domain, "deriveFromHint", internalerrors.ErrConfig, ErrUnknownWireType).WithContext("type", wt)
			}
			params[i] = Param{Name: name, WireType: wt}
		}
		return Descriptor{Style: StylePositional, Params: params}, nil
	default:
		// Unrecognized style: fall through to Record, the most
		// conservative calling convention, rather than failing the whole
		// catalog refresh over one malformed tool.
		return Descriptor{Style: StyleRecord}, nil
	}
}

// autoDetectPositional implements spec §4.3 point 4: required properties
// first in the order of the "required" array, then the remaining
// properties in alphabetical order (see orderedKeys; the schema's own
// declaration order is not preserved), with wire-types inferred from each
// property's JSON Schema "type".
func autoDetectPositional(schema map[string]any, props map[string]any) Descriptor {
	declared := orderedKeys(schema, props)
	required, _ := toStringSlice(schema["required"])
	requiredSet := make(map[string]bool, len(required))
	for _, r := range required {
		requiredSet[r] = true
	}

	order := make([]string, 0, len(declared))
	order = append(order, required...)
	for _, name := range declared {
		if !requiredSet[name] {
			order = append(order, name)
		}
	}

	params := make([]Param, len(order))
	for i, name := range order {
		params[i] = Param{Name: name, WireType: inferWireType(props[name])}
	}
	return Descriptor{Style: StylePositional, Params: params}
}

// orderedKeys returns the property names from props. encoding/json decodes
// objects into Go maps, which do not preserve source order; lacking a
// single canonical declared order, the properties are listed
// alphabetically so repeated derivations (e.g. across catalog refreshes)
// are deterministic.
func orderedKeys(schema map[string]any, props map[string]any) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func inferWireType(propSchema any) string {
	m, ok := propSchema.(map[string]any)
	if !ok {
		return wiretypes.Text
	}
	t, _ := m["type"].(string)
	switch t {
	case "string":
		return wiretypes.Text
	case "number":
		return wiretypes.Nat64
	case "integer":
		return wiretypes.Int64
	case "boolean":
		return wiretypes.Bool
	default:
		return wiretypes.Text
	}
}

func isKnownWireType(wt string) bool {
	switch wt {
	case wiretypes.Text, wiretypes.Bool, wiretypes.Nat, wiretypes.Nat8, wiretypes.Nat16, wiretypes.Nat32, wiretypes.Nat64,
		wiretypes.Int, wiretypes.Int8, wiretypes.Int16, wiretypes.Int32, wiretypes.Int64,
		wiretypes.Float32, wiretypes.Float64, wiretypes.Principal:
		return true
	}
	if strings.HasPrefix(wt, wiretypes.VecPrefix) {
		return isKnownWireType(strings.TrimPrefix(wt, wiretypes.VecPrefix))
	}
	if strings.HasPrefix(wt, wiretypes.OptPrefix) {
		return isKnownWireType(strings.TrimPrefix(wt, wiretypes.OptPrefix))
	}
	return false
}

func toStringSlice(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return nil, errNotAStringList
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, errNotAStringList
		}
		out[i] = s
	}
	return out, nil
}

// validateSchemaShape compiles schema with jsonschema/v6 to surface a
// malformed JSON Schema document as a ConfigError at descriptor-build time
// rather than letting it fail obscurely during later argument validation.
func validateSchemaShape(schema map[string]any) error {
	if schema == nil {
		return nil
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("tool-schema.json", schema); err != nil {
		return err
	}
	_, err := c.Compile("tool-schema.json")
	return err
}
