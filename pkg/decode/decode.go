// Package decode turns serialized documents into the bson trees consumed by
// schema.Model. Every failure is reported as a *schema.DecodeError.
package decode

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/usestring/docschema/pkg/schema"
)

// Format identifies a document serialization.
type Format string

// Supported formats.
const (
	FormatExtJSON Format = "extjson" // MongoDB Extended JSON v2, relaxed or canonical
	FormatJSON    Format = "json"    // Plain JSON, "$" keys have no special meaning
	FormatYAML    Format = "yaml"
	FormatBSON    Format = "bson"
)

// Limits applied at the decode boundary.
const (
	DefaultMaxDepth         = 100
	DefaultMaxDocumentBytes = 16 * 1024 * 1024
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatExtJSON, FormatJSON, FormatYAML, FormatBSON}
}

// ParseFormat parses a format name. Common aliases are accepted.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "extjson", "ejson", "mongo", "mongoexport", "ndjson", "jsonl":
		return FormatExtJSON, nil
	case "json", "plain":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "bson", "bsondump":
		return FormatBSON, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxDepth rejects documents nested deeper than n levels.
func WithMaxDepth(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

// WithMaxDocumentBytes bounds the size of a single serialized document.
func WithMaxDocumentBytes(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}

// WithSelector applies a jq selector to every decoded document.
func WithSelector(s *Selector) Option {
	return func(d *Decoder) {
		d.selector = s
	}
}

// Decoder decodes documents of one format.
type Decoder struct {
	format   Format
	maxDepth int
	maxBytes int
	selector *Selector
	parse    func(data []byte) (any, error)
}

// New creates a decoder for format.
func New(format Format, opts ...Option) (*Decoder, error) {
	d := &Decoder{
		format:   format,
		maxDepth: DefaultMaxDepth,
		maxBytes: DefaultMaxDocumentBytes,
	}
	for _, opt := range opts {
		opt(d)
	}

	switch format {
	case FormatExtJSON:
		d.parse = parseExtJSON
	case FormatJSON:
		d.parse = parsePlainJSON
	case FormatYAML:
		d.parse = d.parseYAML
	case FormatBSON:
		d.parse = parseBSON
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return d, nil
}

// Format returns the decoder's format.
func (d *Decoder) Format() Format { return d.format }

// Decode decodes one serialized document. The root of the returned tree is
// not required to be a document; schema.Model.Ingest reports that. The
// selector is not applied.
func (d *Decoder) Decode(data []byte) (any, error) {
	if len(data) > d.maxBytes {
		return nil, malformed(fmt.Errorf("document of %d bytes exceeds limit of %d", len(data), d.maxBytes))
	}
	tree, err := d.parse(data)
	if err != nil {
		return nil, err
	}
	if err := checkDepth(tree, d.maxDepth); err != nil {
		return nil, err
	}
	return tree, nil
}

// DecodeAll decodes one serialized document and returns the trees to ingest:
// exactly one without a selector, zero or more with one.
func (d *Decoder) DecodeAll(data []byte) ([]any, error) {
	tree, err := d.Decode(data)
	if err != nil {
		return nil, err
	}
	return d.sel(tree)
}

func (d *Decoder) sel(tree any) ([]any, error) {
	if d.selector == nil {
		return []any{tree}, nil
	}
	out, err := d.selector.Apply(tree)
	if err != nil {
		return nil, malformed(err)
	}
	return out, nil
}

func malformed(err error) error {
	return schema.NewDecodeError(schema.ReasonMalformed, "", err)
}

// checkDepth reports a TooDeep decode error when tree nests more than max levels.
func checkDepth(tree any, max int) error {
	var walk func(v any, depth int, path string) error
	walk = func(v any, depth int, path string) error {
		if depth > max {
			return schema.NewDecodeError(schema.ReasonTooDeep, path, fmt.Errorf("nesting exceeds %d levels", max))
		}
		switch val := v.(type) {
		case bson.D:
			for _, e := range val {
				if err := walk(e.Value, depth+1, joinPath(path, e.Key)); err != nil {
					return err
				}
			}
		case bson.A:
			for i, e := range val {
				if err := walk(e, depth+1, joinPath(path, fmt.Sprint(i))); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(tree, 0, "")
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
