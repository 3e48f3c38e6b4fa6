package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/docschema/pkg/encode"
	"github.com/usestring/docschema/pkg/types"
)

// Snapshot views.
const (
	ViewFields     = "fields"
	ViewJSONSchema = "json_schema"
	ViewBoth       = "both"
)

// SnapshotInput is the input for docschema_snapshot.
type SnapshotInput struct {
	Collection string `json:"collection" jsonschema:"Collection name"`
	View       string `json:"view,omitempty" jsonschema:"fields (default): per-path counts, probabilities and sample values; json_schema: a JSON Schema document; both"`
	MaxSamples int    `json:"max_samples,omitempty" jsonschema:"Sample values per type (default: all kept samples)"`
	Canonical  bool   `json:"canonical,omitempty" jsonschema:"Render sample values as canonical instead of relaxed Extended JSON"`
}

// ToolSnapshot returns the inferred schema of a collection.
func ToolSnapshot(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SnapshotInput) (*sdkmcp.CallToolResult, types.SnapshotOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SnapshotInput) (*sdkmcp.CallToolResult, types.SnapshotOutput, error) {
		view := input.View
		if view == "" {
			view = ViewFields
		}
		if view != ViewFields && view != ViewJSONSchema && view != ViewBoth {
			return nil, types.SnapshotOutput{}, ErrInvalidInput("view must be 'fields', 'json_schema', or 'both'")
		}
		if input.MaxSamples < 0 {
			return nil, types.SnapshotOutput{}, ErrInvalidInput("max_samples must not be negative")
		}

		snap, err := d.Snapshot(input.Collection)
		if err != nil {
			return nil, types.SnapshotOutput{}, err
		}

		out := types.SnapshotOutput{Collection: input.Collection}
		if view != ViewJSONSchema {
			out.Schema, err = encode.View(snap, encode.Options{
				Canonical:  input.Canonical,
				Compact:    d.Config.CompactOptions(),
				MaxSamples: input.MaxSamples,
			})
			if err != nil {
				return nil, types.SnapshotOutput{}, WrapSchemaError(err)
			}
		}
		if view != ViewFields {
			out.JSONSchema, err = types.ToAny(encode.JSONSchema(snap))
			if err != nil {
				return nil, types.SnapshotOutput{}, WrapSchemaError(err)
			}
		}
		return nil, out, nil
	}
}
