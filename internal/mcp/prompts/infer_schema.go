package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleInferSchema implements the schema inference workflow.
func HandleInferSchema(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		args := req.Params.Arguments

		collection := "docs"
		format := ""
		if args != nil {
			if v, ok := args["collection"]; ok && v != "" {
				collection = v
			}
			if v, ok := args["format"]; ok {
				format = v
			}
		}

		var sb strings.Builder

		sb.WriteString("# Infer a Document Schema\n\n")
		sb.WriteString("You are a data modeling expert. Your goal is to describe the structure of a document collection: ")
		sb.WriteString("which fields exist, how often they appear, and which types they hold.\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Ingest** - Send documents in batches with `docschema_ingest`\n")
		sb.WriteString("   - Pass each document as a string to preserve key order\n")
		sb.WriteString("   - A batch is atomic: on DECODE_ERROR fix or remove the reported document index and resend\n")
		sb.WriteString("   - Use `select` to ingest embedded arrays, e.g. `select: \".items[]\"`\n\n")
		sb.WriteString("2. **Read the schema** - Call `docschema_snapshot`\n")
		sb.WriteString("   - `probability` on a field is the share of parent documents containing it\n")
		sb.WriteString("   - `probability` on a type is the share of the field's occurrences with that type\n")
		sb.WriteString("   - Fields with several types are polymorphic; check the samples in `values`\n\n")
		sb.WriteString("3. **Export** - Use `view: \"json_schema\"` for a JSON Schema document\n\n")

		sb.WriteString("## Suggested Tools\n\n")
		sb.WriteString("```\n")
		if format != "" {
			sb.WriteString(fmt.Sprintf("docschema_ingest(collection: %q, format: %q, documents: [...])\n", collection, format))
		} else {
			sb.WriteString(fmt.Sprintf("docschema_ingest(collection: %q, documents: [...])\n", collection))
		}
		sb.WriteString(fmt.Sprintf("docschema_snapshot(collection: %q, max_samples: 3)\n", collection))
		sb.WriteString(fmt.Sprintf("docschema_snapshot(collection: %q, view: \"json_schema\")\n", collection))
		sb.WriteString("```\n\n")

		sb.WriteString("## Server Settings\n\n")
		sb.WriteString(fmt.Sprintf("- Up to %d distinct sample values are kept per field type\n", cfg.SampleSize))
		if cfg.TraverseArrays {
			sb.WriteString("- Documents inside arrays are traversed: their fields appear under the array path\n")
		} else {
			sb.WriteString("- Arrays are opaque: document fields inside arrays are not recorded (use `select` to reach them)\n")
		}
		sb.WriteString(fmt.Sprintf("- At most %d collections are kept; the least recently used is evicted\n", cfg.MaxCollections))

		sb.WriteString("\n## Tips\n\n")
		sb.WriteString("- Ingest a representative sample; rare fields need enough documents to show up\n")
		sb.WriteString("- Subdocuments have a count but no type entry; their fields are listed under the dotted path\n")
		sb.WriteString("- Read `docschema://collection/{name}/summary` for a compact text table\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide for inferring a document collection schema",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
