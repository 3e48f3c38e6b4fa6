package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking that its output type serializes
// in a way the SDK's inferred output schema accepts.
//
// Panics if the check fails.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

// CheckOutputSchema panics when values of T would fail the output schema the
// MCP SDK infers for T. Two mismatches are caught:
//
//   - byte fields ([]byte, json.RawMessage): the schema says array of
//     integers, json.Marshal writes a base64 string or raw JSON. Carry such
//     values as any (see types.ToAny) instead.
//   - nil slices without omitzero/omitempty: the schema says array, the zero
//     value marshals to null.
//
// The untyped any output is not checked. Inference failures are left for the
// SDK to report.
func CheckOutputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if paths := byteFields(rt, nil, map[reflect.Type]bool{}); len(paths) > 0 {
		panic(fmt.Sprintf("AddTool %q: output type %s has byte fields at %s; "+
			"the inferred schema expects an array of integers. Use any and types.ToAny instead",
			toolName, rt, strings.Join(paths, ", ")))
	}

	if err := validateZero(rt); err != nil {
		panic(fmt.Sprintf("AddTool %q: zero value of output type %s fails its schema: %v; "+
			"add omitzero to slice fields or initialize them",
			toolName, rt, err))
	}
}

// validateZero validates the JSON form of rt's zero value against the schema
// inferred for rt.
func validateZero(rt reflect.Type) error {
	s, err := jsonschema.ForType(rt, &jsonschema.ForOptions{})
	if err != nil {
		return nil
	}
	resolved, err := s.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil
	}

	data, err := json.Marshal(reflect.Zero(rt).Interface())
	if err != nil {
		return nil
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	if err := resolved.Validate(&v); err != nil {
		return fmt.Errorf("%w (JSON: %s)", err, data)
	}
	return nil
}

var (
	rawMessageType = reflect.TypeFor[json.RawMessage]()
	bytesType      = reflect.TypeFor[[]byte]()
)

// byteFields returns the paths of exported fields of t whose type marshals
// as a JSON string or raw JSON although the schema infers an array.
func byteFields(t reflect.Type, path []string, seen map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == rawMessageType || t == bytesType {
		return []string{strings.Join(path, ".")}
	}
	if seen[t] {
		return nil
	}
	seen[t] = true
	defer delete(seen, t)

	var found []string
	switch t.Kind() {
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if f.IsExported() {
				found = append(found, byteFields(f.Type, append(path, f.Name), seen)...)
			}
		}
	case reflect.Slice, reflect.Array:
		found = byteFields(t.Elem(), append(path, "[]"), seen)
	case reflect.Map:
		found = byteFields(t.Elem(), append(path, "[value]"), seen)
	}
	return found
}
