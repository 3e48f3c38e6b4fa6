// Package mcpsrv provides an extensible MCP server for docschema.
//
// The server keeps named collections of inferred document schemas. Clients
// ingest documents with the builtin tools and read the resulting schema as
// field views, JSON Schema documents or text summaries. Users can extend the
// server with custom tools, prompts and resources using functional options.
//
// # Basic Usage
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Custom tools that need the collections use WithDepsTool:
//
//	type FieldsInput struct {
//	    Collection string `json:"collection"`
//	}
//
//	type FieldsOutput struct {
//	    Paths []string `json:"paths,omitzero"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithDepsTool(
//	        &mcp.Tool{Name: "field_paths", Description: "List field paths"},
//	        func(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, in FieldsInput) (*mcp.CallToolResult, FieldsOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, in FieldsInput) (*mcp.CallToolResult, FieldsOutput, error) {
//	                snap, err := d.Snapshot(in.Collection)
//	                if err != nil {
//	                    return nil, FieldsOutput{}, err
//	                }
//	                var out FieldsOutput
//	                for _, f := range snap.Fields {
//	                    out.Paths = append(out.Paths, f.Path)
//	                }
//	                return nil, out, nil
//	            }
//	        },
//	    ),
//	)
//
// # Configuration
//
// Settings are read from the environment (see internal/config) and can be
// overridden with options:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/docschema.log"),
//	    mcpsrv.WithSampleSize(25),
//	)
package mcpsrv
