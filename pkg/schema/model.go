// Package schema infers a probabilistic schema from a sequence of documents.
//
// A Model ingests one document at a time, tracking for every field path how
// many documents contain it, which value kinds it takes and a bounded sample
// of distinct values per kind. Snapshot derives the probabilities.
//
// A Model is not safe for concurrent use. Serialize calls to Ingest, or build
// one model per worker and combine them with Merge.
package schema

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"go.mongodb.org/mongo-driver/bson"
)

// Model is the aggregation engine.
type Model struct {
	documentCount int64
	fields        []*fieldStat
	index         map[string]int

	sampleSize     int
	traverseArrays bool

	// touched holds the field indexes already counted by the current Ingest call.
	touched *roaring.Bitmap
}

// Option configures a Model.
type Option func(*Model)

// WithSampleSize sets how many distinct values are kept per (path, kind).
func WithSampleSize(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.sampleSize = n
		}
	}
}

// WithArrayTraversal makes Ingest walk document elements of arrays, recording
// their fields under the array's path. The array itself is still recorded as
// an Array kind sampling its elements.
func WithArrayTraversal(enabled bool) Option {
	return func(m *Model) {
		m.traverseArrays = enabled
	}
}

// New creates an empty model.
func New(opts ...Option) *Model {
	m := &Model{
		index:      make(map[string]int),
		sampleSize: DefaultSampleSize,
		touched:    roaring.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DocumentCount returns the number of documents ingested.
func (m *Model) DocumentCount() int64 { return m.documentCount }

// FieldCount returns the number of distinct field paths seen.
func (m *Model) FieldCount() int { return len(m.fields) }

// SampleSize returns the per-kind sample bound.
func (m *Model) SampleSize() int { return m.sampleSize }

// observation is one visited key, buffered until the whole document classified.
type observation struct {
	name  string
	path  string
	kind  Kind
	value any // normalized leaf value or array, nil for documents
}

// Ingest merges one document into the model. The root must be a mapping
// (bson.D, bson.M, map[string]any or bson.Raw), otherwise a DecodeError with
// ReasonNotADocument is returned. On any error the model is left unchanged.
func (m *Model) Ingest(doc any) error {
	k, root, err := classify(doc)
	if err != nil {
		if _, raw := doc.(bson.Raw); raw {
			return NewDecodeError(ReasonMalformed, "", err)
		}
		return NewDecodeError(ReasonNotADocument, "", nil)
	}
	if k != KindDocument {
		return NewDecodeError(ReasonNotADocument, "", nil)
	}

	var obs []observation
	if err := m.walk("", root.(bson.D), &obs); err != nil {
		return err
	}

	m.documentCount++
	m.touched.Clear()
	for _, o := range obs {
		idx := m.resolveField(o.name, o.path)
		f := m.fields[idx]
		if m.touched.CheckedAdd(uint32(idx)) {
			f.count++
		}
		switch o.kind {
		case KindDocument:
		case KindArray:
			f.observeElements(o.value.(bson.A), m.sampleSize)
		default:
			f.observe(o.kind, o.value, m.sampleSize)
		}
	}
	return nil
}

// walk classifies every entry of d depth-first into obs without touching the model.
func (m *Model) walk(prefix string, d bson.D, obs *[]observation) error {
	for _, e := range d {
		path := joinPath(prefix, e.Key)

		k, nv, err := classify(e.Value)
		if err != nil {
			return NewDecodeError(ReasonUnsupportedValue, path, err)
		}

		switch k {
		case KindDocument:
			*obs = append(*obs, observation{name: e.Key, path: path, kind: KindDocument})
			if err := m.walk(path, nv.(bson.D), obs); err != nil {
				return err
			}
		case KindArray:
			arr, err := normalizeValue(nv)
			if err != nil {
				at, cause := nestedPath(path, err)
				return NewDecodeError(ReasonUnsupportedValue, at, cause)
			}
			*obs = append(*obs, observation{name: e.Key, path: path, kind: KindArray, value: arr})
			if !m.traverseArrays {
				continue
			}
			for _, elem := range arr.(bson.A) {
				if sub, ok := elem.(bson.D); ok {
					if err := m.walk(path, sub, obs); err != nil {
						return err
					}
				}
			}
		default:
			if k == KindBinary {
				nv, _ = normalizeValue(nv)
			}
			*obs = append(*obs, observation{name: e.Key, path: path, kind: k, value: nv})
		}
	}
	return nil
}

// resolveField returns the index of the field for path, appending a new
// zero-count field when the path has not been seen.
func (m *Model) resolveField(name, path string) int {
	if idx, ok := m.index[path]; ok {
		return idx
	}
	m.fields = append(m.fields, newFieldStat(name, path))
	idx := len(m.fields) - 1
	m.index[path] = idx
	return idx
}

// Merge folds other into m, as if other's documents had been ingested into m
// after m's own. Fields and kinds new to m are appended in other's order and
// samples are unioned under m's bound. other is not modified.
func (m *Model) Merge(other *Model) {
	if other == nil || other.documentCount == 0 && len(other.fields) == 0 {
		return
	}
	fields := other.fields
	if other == m {
		fields = make([]*fieldStat, len(m.fields))
		for i, f := range m.fields {
			fields[i] = f.clone()
		}
	}

	m.documentCount += other.documentCount
	for _, of := range fields {
		f := m.fields[m.resolveField(of.name, of.path)]
		f.count += of.count
		for _, oks := range of.kinds {
			ks := f.resolveKind(oks.kind, m.sampleSize)
			ks.count += oks.count
			ks.samples.merge(oks.samples)
		}
	}
}

func (f *fieldStat) clone() *fieldStat {
	c := &fieldStat{name: f.name, path: f.path, count: f.count, kindIndex: f.kindIndex}
	for _, ks := range f.kinds {
		s := NewSample(ks.samples.limit)
		s.merge(ks.samples)
		c.kinds = append(c.kinds, &kindStat{kind: ks.kind, path: ks.path, count: ks.count, samples: s})
	}
	return c
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, `.`, `\.`)

// EscapeKey returns key as it appears in a path segment. Dots and
// backslashes are escaped with a backslash, so a root key "a.b" has path
// `a\.b` and stays apart from the nested field "a.b".
func EscapeKey(key string) string {
	if !strings.ContainsAny(key, `.\`) {
		return key
	}
	return keyEscaper.Replace(key)
}

func joinPath(prefix, key string) string {
	key = EscapeKey(key)
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// ParentPath returns the path of the document containing the field with the
// given path and name, or "" for root fields.
func ParentPath(path, name string) string {
	return strings.TrimSuffix(strings.TrimSuffix(path, EscapeKey(name)), ".")
}
