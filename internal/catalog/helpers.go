package catalog

import (
	"fmt"

	"github.com/icarus-sh/icarus-bridge/internal/idl"
)

// emptyArgsEncoding encodes the zero-argument Candid call list_tools()
// expects: an empty IDL argument list.
func emptyArgsEncoding() []byte {
	b, _ := idl.EncodeArgs(nil)
	return b
}

// decodeSingleText decodes reply, expecting exactly one text argument, per
// spec §6 ("a single IDL text value whose contents are a JSON document").
func decodeSingleText(reply []byte) (string, error) {
	values, err := idl.DecodeArgs(reply)
	if err != nil {
		return "", err
	}
	if len(values) != 1 || values[0].Kind != idl.KindText {
		return "", fmt.Errorf("catalog: list_tools reply is not a single text value")
	}
	return values[0].Text, nil
}
