// Package encode renders schema snapshots as JSON views, JSON Schema
// documents and human-readable summaries.
package encode

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/usestring/docschema/pkg/schema"
	"github.com/usestring/docschema/pkg/types"
)

// Options controls how snapshots are rendered.
type Options struct {
	Canonical  bool            // Canonical instead of relaxed Extended JSON for sample values
	Compact    *CompactOptions // Trim sample values (nil = render as sampled)
	MaxSamples int             // Samples rendered per kind (0 = all)
	Indent     string          // MarshalJSON indentation (empty = single line)
}

// View converts a snapshot to its serialized view.
func View(s *schema.Snapshot, opts Options) (*types.SchemaView, error) {
	view := &types.SchemaView{
		Count:  s.DocumentCount,
		Fields: make([]types.FieldView, 0, len(s.Fields)),
	}
	for _, f := range s.Fields {
		fv := types.FieldView{
			Name:        f.Name,
			Path:        f.Path,
			Count:       f.Count,
			Probability: f.Probability,
			Types:       make([]types.TypeView, 0, len(f.Kinds)),
		}
		for _, k := range f.Kinds {
			values, err := renderSamples(k.Samples, opts)
			if err != nil {
				return nil, fmt.Errorf("render samples of %s (%s): %w", f.Path, k.Kind, err)
			}
			fv.Types = append(fv.Types, types.TypeView{
				Name:        k.Kind.String(),
				BSONType:    k.Kind.BSONAlias(),
				Path:        k.Path,
				Count:       k.Count,
				Probability: k.Probability,
				Values:      values,
			})
		}
		view.Fields = append(view.Fields, fv)
	}
	return view, nil
}

// MarshalJSON renders a snapshot view as JSON.
func MarshalJSON(s *schema.Snapshot, opts Options) ([]byte, error) {
	view, err := View(s, opts)
	if err != nil {
		return nil, err
	}
	if opts.Indent != "" {
		return json.MarshalIndent(view, "", opts.Indent)
	}
	return json.Marshal(view)
}

func renderSamples(samples []any, opts Options) ([]any, error) {
	n := len(samples)
	if opts.MaxSamples > 0 && n > opts.MaxSamples {
		n = opts.MaxSamples
	}
	out := make([]any, 0, n)
	for _, v := range samples[:n] {
		if opts.Compact != nil {
			v = Compact(v, opts.Compact)
		}
		rendered, err := ExtJSONValue(v, opts.Canonical)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

// ExtJSONValue renders a bson value as a generic JSON value in Extended
// JSON form. Numbers are kept as json.Number to avoid losing int64
// precision.
func ExtJSONValue(v any, canonical bool) (any, error) {
	b, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, canonical, false)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var wrapper map[string]any
	if err := dec.Decode(&wrapper); err != nil {
		return nil, err
	}
	return wrapper["v"], nil
}
