package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: docschema_ingest
	AddTool(srv, &sdkmcp.Tool{
		Name:        "docschema_ingest",
		Description: "Add documents to a named collection and update its inferred schema. The batch is atomic: if any document fails to decode (DECODE_ERROR, with the failing document index and field path), nothing is ingested. Returns {collection, ingested, document_count, field_count, created}. Use select to ingest embedded arrays, e.g. select: '.items[]'.",
	}, ToolIngest(d))

	// Tool 2: docschema_snapshot
	AddTool(srv, &sdkmcp.Tool{
		Name:        "docschema_snapshot",
		Description: "Get the inferred schema of a collection. view=fields returns {count, fields: [{name, path, count, probability, types: [{name, bsonType, count, probability, values}]}]} in first-seen order; view=json_schema returns a Draft 2020-12 JSON Schema with anyOf for polymorphic fields and x-probability annotations. Returns EMPTY_MODEL before the first ingest.",
	}, ToolSnapshot(d))

	// Tool 3: docschema_collections
	AddTool(srv, &sdkmcp.Tool{
		Name:        "docschema_collections",
		Description: "List collections with their document and field counts. Collections beyond capacity are evicted least recently used first.",
	}, ToolCollections(d))

	// Tool 4: docschema_drop
	AddTool(srv, &sdkmcp.Tool{
		Name:        "docschema_drop",
		Description: "Drop a collection and its inferred schema.",
	}, ToolDrop(d))
}
