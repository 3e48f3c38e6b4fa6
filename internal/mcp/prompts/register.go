package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	// Prompt 1: Infer a collection schema
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "infer_schema",
		Description: "RECOMMENDED: Infer the schema of a set of documents. Start here - walks through batching documents into a collection and reading the resulting field probabilities and types.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "collection",
				Description: "Collection name to ingest into (e.g., 'orders')",
				Required:    false,
			},
			{
				Name:        "format",
				Description: "Format of the documents: extjson, json, yaml, or bson",
				Required:    false,
			},
		},
	}, HandleInferSchema(cfg))
}
