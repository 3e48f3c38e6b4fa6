package encode

import (
	"math"

	"github.com/invopop/jsonschema"

	"github.com/usestring/docschema/pkg/schema"
)

// JSONSchema builds a Draft 2020-12 schema describing the relaxed Extended
// JSON form of the ingested documents.
//
// Nested object properties are rebuilt from field paths. Polymorphic fields
// become anyOf. A field is required when it appeared in every occurrence of
// its parent and was never null. Every variant carries its "bsonType" alias
// and every field its "x-probability".
func JSONSchema(s *schema.Snapshot) *jsonschema.Schema {
	b := &schemaBuilder{children: make(map[string][]schema.FieldView)}
	for _, f := range s.Fields {
		parent := schema.ParentPath(f.Path, f.Name)
		b.children[parent] = append(b.children[parent], f)
	}

	root := b.object("", s.DocumentCount)
	root.Version = jsonschema.Version
	root.Extras = map[string]any{"x-documentCount": s.DocumentCount}
	return root
}

type schemaBuilder struct {
	children map[string][]schema.FieldView
}

// object builds the object schema for the fields under path. requiredAt is
// the number of parent occurrences a child must match to be required; zero
// disables required.
func (b *schemaBuilder) object(path string, requiredAt int64) *jsonschema.Schema {
	obj := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	for _, f := range b.children[path] {
		obj.Properties.Set(f.Name, b.field(f))
		if requiredAt > 0 && f.Count == requiredAt && !hasKind(f, schema.KindNull) {
			obj.Required = append(obj.Required, f.Name)
		}
	}
	return obj
}

func (b *schemaBuilder) field(f schema.FieldView) *jsonschema.Schema {
	var variants []*jsonschema.Schema

	if docOccurrences(f) {
		requiredAt := int64(0)
		if len(f.Kinds) == 0 {
			requiredAt = f.Count
		}
		obj := b.object(f.Path, requiredAt)
		obj.Extras = map[string]any{"bsonType": schema.KindDocument.BSONAlias()}
		variants = append(variants, obj)
	}
	polymorphic := len(variants)+len(f.Kinds) > 1
	for _, k := range f.Kinds {
		v := b.kind(f, k)
		if polymorphic {
			v.Extras["x-probability"] = k.Probability
		}
		variants = append(variants, v)
	}

	if !polymorphic {
		v := variants[0]
		v.Extras["x-probability"] = f.Probability
		return v
	}
	return &jsonschema.Schema{
		AnyOf:  variants,
		Extras: map[string]any{"x-probability": f.Probability},
	}
}

func (b *schemaBuilder) kind(f schema.FieldView, k schema.KindView) *jsonschema.Schema {
	var s *jsonschema.Schema
	switch k.Kind {
	case schema.KindNull:
		s = &jsonschema.Schema{Type: "null"}
	case schema.KindBoolean:
		s = &jsonschema.Schema{Type: "boolean"}
	case schema.KindInt32, schema.KindInt64:
		s = &jsonschema.Schema{Type: "integer"}
	case schema.KindDouble:
		s = &jsonschema.Schema{Type: "number"}
		if nonFinite(k.Samples) {
			// Relaxed Extended JSON has no literal for these.
			s = &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
				s,
				wrapper("$numberDouble", &jsonschema.Schema{Type: "string", Enum: []any{"NaN", "Infinity", "-Infinity"}}),
			}}
		}
	case schema.KindString:
		s = &jsonschema.Schema{Type: "string"}
	case schema.KindDecimal:
		s = wrapper("$numberDecimal", &jsonschema.Schema{Type: "string"})
	case schema.KindObjectID:
		s = wrapper("$oid", &jsonschema.Schema{Type: "string", Pattern: "^[0-9a-fA-F]{24}$"})
	case schema.KindDateTime:
		s = wrapper("$date", &jsonschema.Schema{})
	case schema.KindBinary:
		s = wrapper("$binary", object(
			"base64", &jsonschema.Schema{Type: "string"},
			"subType", &jsonschema.Schema{Type: "string"},
		))
	case schema.KindTimestamp:
		s = wrapper("$timestamp", object(
			"t", &jsonschema.Schema{Type: "integer"},
			"i", &jsonschema.Schema{Type: "integer"},
		))
	case schema.KindRegExp:
		s = wrapper("$regularExpression", object(
			"pattern", &jsonschema.Schema{Type: "string"},
			"options", &jsonschema.Schema{Type: "string"},
		))
	case schema.KindArray:
		s = &jsonschema.Schema{Type: "array"}
		if len(b.children[f.Path]) > 0 {
			// Elements are only walked when they are documents; properties
			// without a type leave other elements unconstrained.
			items := b.object(f.Path, 0)
			items.Type = ""
			s.Items = items
		}
	default:
		s = &jsonschema.Schema{}
	}

	s.Extras = map[string]any{"bsonType": k.Kind.BSONAlias()}
	if k.Kind != schema.KindArray {
		s.Examples = examples(k.Samples)
	}
	return s
}

// wrapper describes an Extended JSON type wrapper such as {"$oid": "..."}.
func wrapper(key string, value *jsonschema.Schema) *jsonschema.Schema {
	return object(key, value)
}

// object builds a closed object schema with every given property required.
func object(kv ...any) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:                 "object",
		Properties:           jsonschema.NewProperties(),
		AdditionalProperties: jsonschema.FalseSchema,
	}
	for i := 0; i+1 < len(kv); i += 2 {
		name := kv[i].(string)
		s.Properties.Set(name, kv[i+1].(*jsonschema.Schema))
		s.Required = append(s.Required, name)
	}
	return s
}

func examples(samples []any) []any {
	out := make([]any, 0, len(samples))
	for _, v := range samples {
		rendered, err := ExtJSONValue(Compact(v, nil), false)
		if err != nil {
			continue
		}
		out = append(out, rendered)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// docOccurrences reports whether the field held a subdocument at least once.
// Subdocuments record no kind, so they show up as occurrences not accounted
// for by kind counts.
func docOccurrences(f schema.FieldView) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	var sum int64
	for _, k := range f.Kinds {
		sum += k.Count
	}
	return f.Count > sum
}

func nonFinite(samples []any) bool {
	for _, v := range samples {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return true
		}
	}
	return false
}

func hasKind(f schema.FieldView, k schema.Kind) bool {
	_, ok := f.Kind(k)
	return ok
}
