// Package types provides the serialized views shared by the encoder, the MCP
// tools and the CLI.
package types

import "encoding/json"

// ToAny round-trips a typed value through JSON to produce an untyped any.
// Use this when a tool output field must be any (instead of a concrete type
// the MCP SDK cannot infer a schema for, such as a recursive JSON Schema).
func ToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
