package ui

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/sorolabs/sdbg/host"
)

// DecodeArgs evaluates an argument expression into the host's native
// argument list. The expression is JavaScript, so plain JSON arrays work
// as-is and small computed expressions ("[1+2, 'bob']") are allowed. A
// non-array result becomes a single-argument list.
func DecodeArgs(expr string) ([]host.Value, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	vm := goja.New()
	v, err := vm.RunString(expr)
	if err != nil {
		return nil, fmt.Errorf("bad argument expression: %w", err)
	}
	exported := v.Export()
	if arr, ok := exported.([]interface{}); ok {
		return host.ValuesFromJSON(arr)
	}
	single, err := host.ValueFromJSON(exported)
	if err != nil {
		return nil, err
	}
	return []host.Value{single}, nil
}
