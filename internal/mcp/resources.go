package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/docschema/internal/mcp/tools"
	"github.com/usestring/docschema/pkg/encode"
)

// Resource URI scheme: docschema://
// Supported URIs:
//   docschema://collection/{name}/schema
//   docschema://collection/{name}/jsonschema
//   docschema://collection/{name}/summary

const resourceScheme = "docschema://"

// Resource views.
const (
	resourceSchema     = "schema"
	resourceJSONSchema = "jsonschema"
	resourceSummary    = "summary"
)

const mimeText = "text/plain"

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "docschema://collection/{name}/schema",
		Name:        "Collection Schema",
		Description: "Full inferred schema of a collection with all kept sample values. Higher context cost than docschema_snapshot with max_samples.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceCollection)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "docschema://collection/{name}/jsonschema",
		Name:        "Collection JSON Schema",
		Description: "Draft 2020-12 JSON Schema describing the documents of a collection in relaxed Extended JSON.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"user", "assistant"},
			Priority: 0.6,
		},
	}, s.handleResourceCollection)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "docschema://collection/{name}/summary",
		Name:        "Collection Summary",
		Description: "Compact text table of field paths, counts, presence and types. Lowest context cost.",
		MIMEType:    mimeText,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"user", "assistant"},
			Priority: 0.8,
		},
	}, s.handleResourceCollection)
}

func (s *Server) handleResourceCollection(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	name, view, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	snap, err := s.deps.Snapshot(name)
	if err != nil {
		var coded *tools.CodedError
		if errors.As(err, &coded) && coded.Code == tools.ErrCodeNotFound {
			return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, err
	}

	switch view {
	case resourceJSONSchema:
		return toResourceResult(req.Params.URI, encode.JSONSchema(snap))
	case resourceSummary:
		var buf bytes.Buffer
		if err := encode.Summary(&buf, snap); err != nil {
			return nil, fmt.Errorf("rendering summary: %w", err)
		}
		return &sdkmcp.ReadResourceResult{
			Contents: []*sdkmcp.ResourceContents{
				{URI: req.Params.URI, MIMEType: mimeText, Text: buf.String()},
			},
		}, nil
	default:
		v, err := encode.View(snap, encode.Options{Compact: s.deps.Config.CompactOptions()})
		if err != nil {
			return nil, tools.WrapSchemaError(err)
		}
		return toResourceResult(req.Params.URI, v)
	}
}

// Helper functions

// parseResourceURI extracts the collection name and view from a
// docschema:// URI.
func parseResourceURI(uri string) (name, view string, err error) {
	if !strings.HasPrefix(uri, resourceScheme) {
		return "", "", tools.ErrInvalidInput("invalid URI scheme: expected " + resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	if parts[0] != "collection" {
		return "", "", tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", parts[0]))
	}
	if len(parts) != 3 || parts[1] == "" {
		return "", "", tools.ErrInvalidInput("collection URI requires a name and a view")
	}

	switch parts[2] {
	case resourceSchema, resourceJSONSchema, resourceSummary:
		return parts[1], parts[2], nil
	}
	return "", "", tools.ErrInvalidInput(fmt.Sprintf("unknown collection view: %s", parts[2]))
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
