package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/docschema/pkg/decode"
	"github.com/usestring/docschema/pkg/schema"
	"github.com/usestring/docschema/pkg/types"
)

// maxIngestDocuments caps one docschema_ingest batch.
const maxIngestDocuments = 10000

// IngestInput is the input for docschema_ingest.
type IngestInput struct {
	Collection string `json:"collection" jsonschema:"Collection name. Created on first ingest."`
	Documents  []any  `json:"documents" jsonschema:"Documents to ingest. Objects are read as Extended JSON (plain JSON when format is json). Strings hold one serialized document: Extended JSON or YAML text, or base64 BSON. Pass strings to preserve key order."`
	Format     string `json:"format,omitempty" jsonschema:"Format of string documents: extjson (default), json, yaml, or bson"`
	Select     string `json:"select,omitempty" jsonschema:"jq expression applied to each document before ingesting, e.g. '.items[]'"`
}

// ToolIngest decodes a batch of documents and adds them to a collection.
// The batch is atomic: if any document fails, nothing is ingested.
func ToolIngest(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input IngestInput) (*sdkmcp.CallToolResult, types.IngestOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input IngestInput) (*sdkmcp.CallToolResult, types.IngestOutput, error) {
		if err := validateCollection(input.Collection); err != nil {
			return nil, types.IngestOutput{}, err
		}
		if len(input.Documents) == 0 {
			return nil, types.IngestOutput{}, ErrInvalidInput("documents must not be empty")
		}
		if len(input.Documents) > maxIngestDocuments {
			return nil, types.IngestOutput{}, ErrInvalidInput(fmt.Sprintf("at most %d documents per call", maxIngestDocuments))
		}

		decoders, err := d.batchDecoders(input)
		if err != nil {
			return nil, types.IngestOutput{}, err
		}

		batch := schema.New(d.Config.ModelOptions()...)
		ingested := 0
		for i, doc := range input.Documents {
			if err := ctx.Err(); err != nil {
				return nil, types.IngestOutput{}, err
			}
			trees, err := decoders.decode(doc)
			if err == nil {
				for _, tree := range trees {
					if err = batch.Ingest(tree); err != nil {
						break
					}
					ingested++
				}
			}
			if err != nil {
				return nil, types.IngestOutput{}, WrapSchemaError(fmt.Errorf("document %d: %w", i, err))
			}
		}

		coll, created := d.Collections.GetOrCreate(input.Collection)
		var out types.IngestOutput
		err = coll.Update(func(m *schema.Model) error {
			m.Merge(batch)
			out = types.IngestOutput{
				Collection:    coll.Name(),
				Ingested:      ingested,
				DocumentCount: m.DocumentCount(),
				FieldCount:    m.FieldCount(),
				Created:       created,
			}
			return nil
		})
		if err != nil {
			return nil, types.IngestOutput{}, WrapSchemaError(err)
		}
		return nil, out, nil
	}
}

// batchDecoders holds the decoders for one ingest call: text decodes string
// documents in the requested format, inline decodes documents that arrived
// as JSON values.
type batchDecoders struct {
	format decode.Format
	text   *decode.Decoder
	inline *decode.Decoder
}

func (d *Deps) batchDecoders(input IngestInput) (*batchDecoders, error) {
	name := input.Format
	if name == "" {
		name = d.Config.DefaultFormat
	}
	format, err := decode.ParseFormat(name)
	if err != nil {
		return nil, ErrInvalidInput(err.Error())
	}

	opts := d.Config.DecodeOptions()
	if input.Select != "" {
		sel, err := decode.NewSelector(input.Select)
		if err != nil {
			return nil, ErrInvalidInput(err.Error())
		}
		opts = append(opts, decode.WithSelector(sel))
	}

	inlineFormat := decode.FormatExtJSON
	if format == decode.FormatJSON {
		inlineFormat = decode.FormatJSON
	}

	text, err := decode.New(format, opts...)
	if err != nil {
		return nil, ErrInvalidInput(err.Error())
	}
	inline, err := decode.New(inlineFormat, opts...)
	if err != nil {
		return nil, ErrInvalidInput(err.Error())
	}
	return &batchDecoders{format: format, text: text, inline: inline}, nil
}

func (b *batchDecoders) decode(doc any) ([]any, error) {
	s, ok := doc.(string)
	if !ok {
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		return b.inline.DecodeAll(data)
	}

	data := []byte(s)
	if b.format == decode.FormatBSON {
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, schema.NewDecodeError(schema.ReasonMalformed, "", fmt.Errorf("invalid base64: %w", err))
		}
		data = raw
	}
	return b.text.DecodeAll(data)
}
