package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ingestAll(t *testing.T, m *Model, docs ...any) {
	t.Helper()
	for _, d := range docs {
		require.NoError(t, m.Ingest(d))
	}
}

func mustSnapshot(t *testing.T, m *Model) *Snapshot {
	t.Helper()
	s, err := m.Snapshot()
	require.NoError(t, err)
	return s
}

func mustField(t *testing.T, s *Snapshot, path string) FieldView {
	t.Helper()
	f, ok := s.Field(path)
	require.True(t, ok, "field %q not found", path)
	return f
}

func TestIngest_SameShapeDocuments(t *testing.T) {
	m := New()
	ingestAll(t, m,
		bson.D{{Key: "name", Value: "Nori"}, {Key: "type", Value: "Cat"}},
		bson.D{{Key: "name", Value: "Chashu"}, {Key: "type", Value: "Cat"}},
	)

	s := mustSnapshot(t, m)
	assert.Equal(t, int64(2), s.DocumentCount)
	require.Len(t, s.Fields, 2)

	name := mustField(t, s, "name")
	assert.Equal(t, int64(2), name.Count)
	assert.Equal(t, 1.0, name.Probability)
	require.Len(t, name.Kinds, 1)
	assert.Equal(t, KindString, name.Kinds[0].Kind)
	assert.Equal(t, int64(2), name.Kinds[0].Count)
	assert.Equal(t, []any{"Nori", "Chashu"}, name.Kinds[0].Samples)

	typ := mustField(t, s, "type")
	assert.Equal(t, int64(2), typ.Count)
	require.Len(t, typ.Kinds, 1)
	assert.Equal(t, int64(2), typ.Kinds[0].Count)
	assert.Equal(t, []any{"Cat"}, typ.Kinds[0].Samples)
}

func TestIngest_PolymorphicField(t *testing.T) {
	m := New()
	ingestAll(t, m,
		bson.D{{Key: "name", Value: "Nori"}},
		bson.D{{Key: "name", Value: 42}},
	)

	name := mustField(t, mustSnapshot(t, m), "name")
	assert.Equal(t, int64(2), name.Count)
	assert.Equal(t, []string{"String", "Int32"}, name.KindNames())

	str, ok := name.Kind(KindString)
	require.True(t, ok)
	assert.Equal(t, int64(1), str.Count)
	assert.Equal(t, 0.5, str.Probability)

	num, ok := name.Kind(KindInt32)
	require.True(t, ok)
	assert.Equal(t, int64(1), num.Count)
	assert.Equal(t, []any{int32(42)}, num.Samples)
}

func TestIngest_SubdocumentRecordsNoKind(t *testing.T) {
	m := New()
	ingestAll(t, m, bson.D{{Key: "owner", Value: bson.D{{Key: "name", Value: "Nori"}}}})

	s := mustSnapshot(t, m)
	require.Len(t, s.Fields, 2)

	owner := s.Fields[0]
	assert.Equal(t, "owner", owner.Path)
	assert.Equal(t, int64(1), owner.Count)
	assert.Empty(t, owner.Kinds)

	child := s.Fields[1]
	assert.Equal(t, "owner.name", child.Path)
	assert.Equal(t, "name", child.Name)
	assert.Equal(t, int64(1), child.Count)
	assert.Equal(t, []string{"String"}, child.KindNames())
}

func TestSnapshot_EmptyModel(t *testing.T) {
	_, err := New().Snapshot()
	assert.ErrorIs(t, err, ErrEmptyModel)
}

func TestIngest_SameNameDifferentPaths(t *testing.T) {
	m := New()
	ingestAll(t, m, bson.D{
		{Key: "a", Value: bson.D{{Key: "name", Value: "x"}}},
		{Key: "b", Value: bson.D{{Key: "name", Value: int64(1) << 40}}},
		{Key: "name", Value: true},
	})

	s := mustSnapshot(t, m)
	assert.Equal(t, []string{"String"}, mustField(t, s, "a.name").KindNames())
	assert.Equal(t, []string{"Int64"}, mustField(t, s, "b.name").KindNames())
	assert.Equal(t, []string{"Boolean"}, mustField(t, s, "name").KindNames())
}

func TestIngest_FirstSeenOrder(t *testing.T) {
	m := New()
	ingestAll(t, m,
		bson.D{{Key: "b", Value: 1}, {Key: "a", Value: bson.D{{Key: "z", Value: 1}}}},
		bson.D{{Key: "c", Value: 1}, {Key: "a", Value: bson.D{{Key: "y", Value: "s"}, {Key: "z", Value: nil}}}},
	)

	s := mustSnapshot(t, m)
	paths := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{"b", "a", "a.z", "c", "a.y"}, paths)
	assert.Equal(t, []string{"Int32", "Null"}, mustField(t, s, "a.z").KindNames())
}

func TestIngest_RootNotADocument(t *testing.T) {
	tests := []struct {
		name string
		doc  any
	}{
		{"nil", nil},
		{"string", "hello"},
		{"int", 42},
		{"array", bson.A{bson.D{{Key: "a", Value: 1}}}},
		{"struct", struct{ A int }{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			err := m.Ingest(tt.doc)
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, ReasonNotADocument, de.Reason)
			assert.ErrorIs(t, err, ErrNotADocument)
			assert.Equal(t, int64(0), m.DocumentCount())
		})
	}
}

func TestIngest_MalformedRaw(t *testing.T) {
	m := New()
	err := m.Ingest(bson.Raw{0x01, 0x02})

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ReasonMalformed, de.Reason)
}

func TestIngest_RawDocument(t *testing.T) {
	raw, err := bson.Marshal(bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "n", Value: int64(7)}})
	require.NoError(t, err)

	m := New()
	require.NoError(t, m.Ingest(bson.Raw(raw)))

	s := mustSnapshot(t, m)
	assert.Equal(t, []string{"ObjectId"}, mustField(t, s, "_id").KindNames())
	assert.Equal(t, []string{"Int64"}, mustField(t, s, "n").KindNames())
}

func TestIngest_FailureLeavesModelUnchanged(t *testing.T) {
	m := New()
	ingestAll(t, m, bson.D{{Key: "a", Value: "x"}})
	before := mustSnapshot(t, m)

	err := m.Ingest(bson.D{
		{Key: "a", Value: "y"},
		{Key: "new", Value: 1},
		{Key: "bad", Value: bson.D{{Key: "code", Value: primitive.JavaScript("f()")}}},
	})
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ReasonUnsupportedValue, de.Reason)
	assert.Equal(t, "bad.code", de.Path)

	assert.Equal(t, before, mustSnapshot(t, m))
}

func TestIngest_UnsupportedValueInsideArray(t *testing.T) {
	m := New()
	err := m.Ingest(bson.D{{Key: "list", Value: bson.A{1, bson.D{{Key: "k", Value: primitive.MinKey{}}}}}})

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ReasonUnsupportedValue, de.Reason)
	assert.Equal(t, "list.1.k", de.Path)
	assert.Equal(t, 0, m.FieldCount())
}

func TestIngest_DuplicateKeysCountFieldOnce(t *testing.T) {
	m := New()
	ingestAll(t, m, bson.D{{Key: "a", Value: "x"}, {Key: "a", Value: "y"}})

	a := mustField(t, mustSnapshot(t, m), "a")
	assert.Equal(t, int64(1), a.Count)
	require.Len(t, a.Kinds, 1)
	assert.Equal(t, int64(2), a.Kinds[0].Count)
	assert.Equal(t, 2.0, a.Kinds[0].Probability)

	f := m.fields[m.index["a"]]
	assert.GreaterOrEqual(t, f.kindCountSum(), f.count)
}

func TestIngest_ArraysAreOpaqueByDefault(t *testing.T) {
	m := New()
	ingestAll(t, m, bson.D{{Key: "pets", Value: bson.A{
		bson.D{{Key: "name", Value: "Nori"}},
		bson.D{{Key: "name", Value: "Chashu"}},
	}}})

	s := mustSnapshot(t, m)
	require.Len(t, s.Fields, 1)

	pets := s.Fields[0]
	require.Len(t, pets.Kinds, 1)
	assert.Equal(t, KindArray, pets.Kinds[0].Kind)
	assert.Equal(t, int64(1), pets.Kinds[0].Count)
	assert.Equal(t, []any{
		bson.D{{Key: "name", Value: "Nori"}},
		bson.D{{Key: "name", Value: "Chashu"}},
	}, pets.Kinds[0].Samples)
}

func TestIngest_ArraySamplesElements(t *testing.T) {
	m := New(WithSampleSize(4))
	ingestAll(t, m,
		bson.D{{Key: "tags", Value: bson.A{"a", "b", "c"}}},
		bson.D{{Key: "tags", Value: bson.A{"b", "c", int32(1), "d", "e"}}},
		bson.D{{Key: "tags", Value: bson.A{}}},
	)

	tags := mustField(t, mustSnapshot(t, m), "tags")
	require.Len(t, tags.Kinds, 1)
	assert.Equal(t, KindArray, tags.Kinds[0].Kind)
	assert.Equal(t, int64(3), tags.Kinds[0].Count, "once per array occurrence")
	assert.Equal(t, []any{"a", "b", "c", int32(1)}, tags.Kinds[0].Samples)
}

func TestIngest_ArrayTraversal(t *testing.T) {
	m := New(WithArrayTraversal(true))
	ingestAll(t, m,
		bson.D{{Key: "pets", Value: bson.A{
			bson.D{{Key: "name", Value: "Nori"}},
			"not a document",
			bson.D{{Key: "name", Value: "Chashu"}, {Key: "age", Value: 3}},
		}}},
		bson.D{{Key: "pets", Value: bson.A{}}},
	)

	s := mustSnapshot(t, m)
	pets := mustField(t, s, "pets")
	assert.Equal(t, int64(2), pets.Count)
	assert.Equal(t, []string{"Array"}, pets.KindNames())

	name := mustField(t, s, "pets.name")
	assert.Equal(t, "name", name.Name)
	assert.Equal(t, int64(1), name.Count, "counted once per document")
	assert.Equal(t, 0.5, name.Probability)
	require.Len(t, name.Kinds, 1)
	assert.Equal(t, int64(2), name.Kinds[0].Count)
	assert.Equal(t, []any{"Nori", "Chashu"}, name.Kinds[0].Samples)

	assert.Equal(t, []string{"Int32"}, mustField(t, s, "pets.age").KindNames())
}

func TestIngest_UnorderedMapsWalkSortedKeys(t *testing.T) {
	m := New()
	ingestAll(t, m, map[string]any{"z": 1, "a": map[string]any{"y": 2, "b": 3}, "m": []any{1}})

	s := mustSnapshot(t, m)
	paths := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{"a", "a.b", "a.y", "m", "z"}, paths)
	assert.Equal(t, []string{"Array"}, mustField(t, s, "m").KindNames())
}

func TestIngest_RepeatDoublesCounts(t *testing.T) {
	doc := bson.D{
		{Key: "name", Value: "Nori"},
		{Key: "owner", Value: bson.D{{Key: "age", Value: 30}, {Key: "tags", Value: bson.A{"a"}}}},
		{Key: "score", Value: 1.5},
	}

	once := New()
	ingestAll(t, once, doc)
	twice := New()
	ingestAll(t, twice, doc, doc)

	s1 := mustSnapshot(t, once)
	s2 := mustSnapshot(t, twice)
	require.Len(t, s2.Fields, len(s1.Fields))
	for i := range s1.Fields {
		f1, f2 := s1.Fields[i], s2.Fields[i]
		assert.Equal(t, f1.Path, f2.Path)
		assert.Equal(t, 2*f1.Count, f2.Count)
		assert.Equal(t, f1.Probability, f2.Probability)
		require.Len(t, f2.Kinds, len(f1.Kinds))
		for j := range f1.Kinds {
			assert.Equal(t, f1.Kinds[j].Kind, f2.Kinds[j].Kind)
			assert.Equal(t, 2*f1.Kinds[j].Count, f2.Kinds[j].Count)
			assert.Equal(t, f1.Kinds[j].Samples, f2.Kinds[j].Samples)
		}
	}
}

func TestIngest_ProbabilityInvariants(t *testing.T) {
	m := New(WithSampleSize(3))
	for i := 0; i < 50; i++ {
		doc := bson.D{{Key: "i", Value: i}}
		if i%2 == 0 {
			doc = append(doc, bson.E{Key: "even", Value: fmt.Sprint(i)})
		}
		if i%5 == 0 {
			doc = append(doc, bson.E{Key: "nested", Value: bson.D{{Key: "v", Value: float64(i) / 3}}})
		} else if i%7 == 0 {
			doc = append(doc, bson.E{Key: "nested", Value: "flat"})
		}
		ingestAll(t, m, doc)
	}

	s := mustSnapshot(t, m)
	assert.Equal(t, int64(50), s.DocumentCount)
	for _, f := range s.Fields {
		assert.LessOrEqual(t, f.Count, s.DocumentCount)
		assert.Greater(t, f.Count, int64(0))
		assert.InDelta(t, float64(f.Count)/float64(s.DocumentCount), f.Probability, 1e-12)
		for _, k := range f.Kinds {
			assert.InDelta(t, float64(k.Count)/float64(f.Count), k.Probability, 1e-12)
			assert.Greater(t, k.Probability, 0.0)
			assert.LessOrEqual(t, k.Probability, 1.0)
			assert.LessOrEqual(t, len(k.Samples), 3)
		}
	}

	assert.InDelta(t, 0.5, mustField(t, s, "even").Probability, 1e-12)
	nested := mustField(t, s, "nested")
	assert.Equal(t, int64(16), nested.Count) // 10 multiples of 5, 6 other multiples of 7
	assert.Equal(t, []string{"String"}, nested.KindNames())
	assert.Equal(t, int64(10), mustField(t, s, "nested.v").Count)
}

func TestSnapshot_IsFreshAndDetached(t *testing.T) {
	m := New()
	ingestAll(t, m, bson.D{{Key: "tags", Value: bson.A{bson.A{"a", "b"}}}})

	s1 := mustSnapshot(t, m)
	s1.Fields[0].Kinds[0].Samples[0].(bson.A)[0] = "mutated"
	s1.Fields[0].Count = 99

	ingestAll(t, m, bson.D{{Key: "tags", Value: bson.A{"c"}}})
	s2 := mustSnapshot(t, m)

	tags := mustField(t, s2, "tags")
	assert.Equal(t, int64(2), tags.Count)
	assert.Equal(t, []any{bson.A{"a", "b"}, "c"}, tags.Kinds[0].Samples)
}

func TestIngest_CallerMutationDoesNotLeak(t *testing.T) {
	inner := bson.A{"a"}
	m := New()
	ingestAll(t, m, bson.D{{Key: "tags", Value: bson.A{inner}}})
	inner[0] = "changed"

	tags := mustField(t, mustSnapshot(t, m), "tags")
	assert.Equal(t, []any{bson.A{"a"}}, tags.Kinds[0].Samples)
}

func TestSnapshot_Children(t *testing.T) {
	m := New()
	ingestAll(t, m, bson.D{
		{Key: "a", Value: bson.D{{Key: "b", Value: bson.D{{Key: "c", Value: 1}}}, {Key: "d", Value: 2}}},
		{Key: "e", Value: 3},
	})

	s := mustSnapshot(t, m)
	names := func(fs []FieldView) []string {
		out := make([]string, len(fs))
		for i, f := range fs {
			out[i] = f.Path
		}
		return out
	}
	assert.Equal(t, []string{"a", "e"}, names(s.Children("")))
	assert.Equal(t, []string{"a.b", "a.d"}, names(s.Children("a")))
	assert.Equal(t, []string{"a.b.c"}, names(s.Children("a.b")))
	assert.Empty(t, s.Children("e"))
}

func TestIngest_DottedKeysStayApart(t *testing.T) {
	m := New()
	ingestAll(t, m, bson.D{
		{Key: "a.b", Value: 1},
		{Key: "a", Value: bson.D{{Key: "b", Value: "x"}, {Key: `c\`, Value: true}}},
	})

	s := mustSnapshot(t, m)
	paths := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{`a\.b`, "a", "a.b", `a.c\\`}, paths)

	dotted := mustField(t, s, `a\.b`)
	assert.Equal(t, "a.b", dotted.Name)
	assert.Equal(t, []string{"Int32"}, dotted.KindNames())
	assert.Equal(t, []string{"String"}, mustField(t, s, "a.b").KindNames())

	children := s.Children("a")
	require.Len(t, children, 2)
	assert.Equal(t, "b", children[0].Name)
	assert.Equal(t, `c\`, children[1].Name)
	assert.Len(t, s.Children(""), 2)
}
