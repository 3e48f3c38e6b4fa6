package schema

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSampleSize is the number of distinct values retained per (path, kind).
const DefaultSampleSize = 10

// Sample is a bounded set of distinct values kept in first-seen order.
// Once full, further distinct values are dropped; nothing is ever evicted.
type Sample struct {
	limit  int
	values []any
	keys   map[string]struct{}
}

// NewSample creates a sample holding at most limit values. Limits below 1 are raised to 1.
func NewSample(limit int) *Sample {
	if limit < 1 {
		limit = 1
	}
	return &Sample{
		limit: limit,
		keys:  make(map[string]struct{}, limit),
	}
}

// Add offers v to the sample and reports whether it was stored.
// Values that cannot be classified are rejected.
func (s *Sample) Add(v any) bool {
	if s.Full() {
		return false
	}
	nv, err := normalizeValue(v)
	if err != nil {
		return false
	}
	return s.insert(nv)
}

// Contains reports whether a value equal to v is stored.
func (s *Sample) Contains(v any) bool {
	nv, err := normalizeValue(v)
	if err != nil {
		return false
	}
	_, ok := s.keys[valueKey(nv)]
	return ok
}

// Values returns a copy of the stored values.
func (s *Sample) Values() []any {
	out := make([]any, len(s.values))
	for i, v := range s.values {
		out[i] = cloneValue(v)
	}
	return out
}

// Len returns the number of stored values.
func (s *Sample) Len() int { return len(s.values) }

// Cap returns the sample bound.
func (s *Sample) Cap() int { return s.limit }

// Full reports whether the bound has been reached.
func (s *Sample) Full() bool { return len(s.values) >= s.limit }

// insert stores an already-normalized value the sample takes ownership of.
func (s *Sample) insert(v any) bool {
	if s.Full() {
		return false
	}
	key := valueKey(v)
	if _, dup := s.keys[key]; dup {
		return false
	}
	s.keys[key] = struct{}{}
	s.values = append(s.values, v)
	return true
}

// merge inserts o's values in order until the bound is reached.
func (s *Sample) merge(o *Sample) {
	for _, v := range o.values {
		if s.Full() {
			return
		}
		s.insert(cloneValue(v))
	}
}

// valueKey is the identity of a normalized value: its canonical Extended JSON
// encoding, which keeps numeric kinds and document key order apart.
func valueKey(v any) string {
	b, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, true, false)
	if err != nil {
		return fmt.Sprintf("%T:%#v", v, v)
	}
	return string(b)
}

// normalizeValue classifies v and every value nested in it, returning a
// freshly allocated tree.
func normalizeValue(v any) (any, error) {
	k, nv, err := classify(v)
	if err != nil {
		return nil, err
	}
	switch k {
	case KindArray:
		arr := nv.(bson.A)
		out := make(bson.A, len(arr))
		for i, e := range arr {
			ne, err := normalizeValue(e)
			if err != nil {
				return nil, &pathError{segment: fmt.Sprint(i), err: err}
			}
			out[i] = ne
		}
		return out, nil
	case KindDocument:
		d := nv.(bson.D)
		out := make(bson.D, len(d))
		for i, e := range d {
			ne, err := normalizeValue(e.Value)
			if err != nil {
				return nil, &pathError{segment: e.Key, err: err}
			}
			out[i] = bson.E{Key: e.Key, Value: ne}
		}
		return out, nil
	case KindBinary:
		b := nv.(primitive.Binary)
		return primitive.Binary{Subtype: b.Subtype, Data: append([]byte(nil), b.Data...)}, nil
	default:
		return nv, nil
	}
}

// cloneValue deep-copies the mutable parts of a normalized value.
func cloneValue(v any) any {
	switch val := v.(type) {
	case bson.A:
		out := make(bson.A, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	case bson.D:
		out := make(bson.D, len(val))
		for i, e := range val {
			out[i] = bson.E{Key: e.Key, Value: cloneValue(e.Value)}
		}
		return out
	case primitive.Binary:
		return primitive.Binary{Subtype: val.Subtype, Data: append([]byte(nil), val.Data...)}
	default:
		return v
	}
}

// pathError carries the location of an unsupported value nested inside a leaf.
type pathError struct {
	segment string
	err     error
}

func (e *pathError) Error() string { return e.err.Error() }

func (e *pathError) Unwrap() error { return e.err }

// nestedPath returns the full dotted location encoded in a chain of pathErrors.
func nestedPath(prefix string, err error) (string, error) {
	path := prefix
	for {
		pe, ok := err.(*pathError)
		if !ok {
			return path, err
		}
		path = joinPath(path, pe.segment)
		err = pe.err
	}
}
