package decode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
	"go.mongodb.org/mongo-driver/bson"
)

// Selector extracts documents from a decoded tree with a jq expression,
// e.g. ".items[]" to ingest each element of an embedded array.
type Selector struct {
	expr string
	code *gojq.Code
}

// NewSelector parses and compiles a jq expression.
func NewSelector(expr string) (*Selector, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return &Selector{expr: expr, code: code}, nil
}

func (s *Selector) String() string { return s.expr }

// Apply runs the expression against tree and returns every output.
// Extended types travel through the query as relaxed Extended JSON wrappers
// ({"$oid": ...}, {"$date": ...}) and are restored afterwards. Object keys
// of the outputs are sorted. Null outputs are dropped.
func (s *Selector) Apply(tree any) ([]any, error) {
	input, err := toJQ(tree)
	if err != nil {
		return nil, err
	}

	var out []any
	iter := s.code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, errors.New(formatJQError(s.expr, err))
		}
		if v == nil {
			continue
		}
		tree, err := fromJQ(v)
		if err != nil {
			return nil, err
		}
		out = append(out, tree)
	}
	return out, nil
}

func toJQ(tree any) (any, error) {
	b, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: tree}}, false, false)
	if err != nil {
		return nil, fmt.Errorf("encode selector input: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var wrapper map[string]any
	if err := dec.Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("encode selector input: %w", err)
	}
	return jqNumbers(wrapper["v"]), nil
}

// jqNumbers replaces json.Number with the int/float64 values gojq expects.
func jqNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		for k, e := range val {
			val[k] = jqNumbers(e)
		}
		return val
	case []any:
		for i, e := range val {
			val[i] = jqNumbers(e)
		}
		return val
	}
	return v
}

func fromJQ(v any) (any, error) {
	b, err := json.Marshal(map[string]any{"v": v})
	if err != nil {
		return nil, fmt.Errorf("decode selector output: %w", err)
	}
	var d bson.D
	if err := bson.UnmarshalExtJSON(b, false, &d); err != nil {
		return nil, fmt.Errorf("decode selector output: %w", err)
	}
	return d[0].Value, nil
}

// formatJQError adds hints for the runtime errors users hit most often.
// gojq reports these as plain errors, so the hints key off the message.
func formatJQError(expr string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("select %q: halted", expr)
		}
		return fmt.Sprintf("select %q: halted with: %v", expr, haltErr.Value())
	}

	msg := err.Error()
	var hint string
	switch {
	case strings.Contains(msg, "cannot iterate over: null"):
		hint = " (the path may not exist in this document)"
	case strings.Contains(msg, "cannot index") && strings.Contains(msg, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(msg, "object") && strings.Contains(msg, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	}
	return fmt.Sprintf("select %q: %s%s", expr, msg, hint)
}
