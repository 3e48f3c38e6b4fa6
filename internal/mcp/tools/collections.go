package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/docschema/pkg/types"
)

// CollectionsInput is the input for docschema_collections.
type CollectionsInput struct{}

// DropInput is the input for docschema_drop.
type DropInput struct {
	Collection string `json:"collection" jsonschema:"Collection name"`
}

// ToolCollections lists the collections held by the server.
func ToolCollections(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CollectionsInput) (*sdkmcp.CallToolResult, types.CollectionsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CollectionsInput) (*sdkmcp.CallToolResult, types.CollectionsOutput, error) {
		colls := d.Collections.Collections()
		output := types.CollectionsOutput{
			Collections: make([]types.CollectionInfo, len(colls)),
			Capacity:    d.Collections.Cap(),
		}
		for i, c := range colls {
			docs, fields := c.Stats()
			output.Collections[i] = types.CollectionInfo{
				Name:          c.Name(),
				DocumentCount: docs,
				FieldCount:    fields,
			}
		}
		return nil, output, nil
	}
}

// ToolDrop removes a collection and its model.
func ToolDrop(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DropInput) (*sdkmcp.CallToolResult, types.DropOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DropInput) (*sdkmcp.CallToolResult, types.DropOutput, error) {
		if err := validateCollection(input.Collection); err != nil {
			return nil, types.DropOutput{}, err
		}
		if !d.Collections.Remove(input.Collection) {
			return nil, types.DropOutput{}, ErrNotFound("collection", input.Collection)
		}
		return nil, types.DropOutput{Collection: input.Collection, Dropped: true}, nil
	}
}
