package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/usestring/docschema/pkg/decode"
	"github.com/usestring/docschema/pkg/schema"
)

func lines(start, n int) string {
	var b strings.Builder
	for i := start; i < start+n; i++ {
		if i%2 == 0 {
			fmt.Fprintf(&b, "{\"id\":%d,\"v\":\"s%d\"}\n", i, i%3)
		} else {
			fmt.Fprintf(&b, "{\"id\":%d,\"v\":%d,\"extra\":{\"k\":true}}\n", i, i)
		}
	}
	return b.String()
}

func snapshot(t *testing.T, m *schema.Model) *schema.Snapshot {
	t.Helper()
	s, err := m.Snapshot()
	require.NoError(t, err)
	return s
}

func TestRun_MatchesSequentialIngest(t *testing.T) {
	chunks := []string{lines(0, 17), lines(17, 5), lines(22, 30), lines(52, 1)}

	sources := make([]Source, len(chunks))
	for i, c := range chunks {
		sources[i] = ReaderSource(fmt.Sprintf("chunk%d.ndjson", i), strings.NewReader(c))
	}
	res, err := Run(context.Background(), sources, Options{Workers: 3, ModelOptions: []schema.Option{schema.WithSampleSize(3)}})
	require.NoError(t, err)

	dec, err := decode.New(decode.FormatExtJSON)
	require.NoError(t, err)
	expected := schema.New(schema.WithSampleSize(3))
	r := decode.NewReader(strings.NewReader(strings.Join(chunks, "")), dec)
	for {
		tree, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.NoError(t, expected.Ingest(tree))
	}

	assert.Equal(t, snapshot(t, expected), snapshot(t, res.Model))
	require.Len(t, res.Sources, 4)
	assert.Equal(t, 17, res.Sources[0].Documents)
	assert.Equal(t, decode.FormatExtJSON, res.Sources[0].Format)
	assert.Equal(t, uint64(0), res.Skipped())
}

func TestRun_FailsFast(t *testing.T) {
	src := ReaderSource("bad.ndjson", strings.NewReader("{\"a\":1}\n[1]\n{\"a\":2}\n"))
	_, err := Run(context.Background(), []Source{src}, Options{})
	require.Error(t, err)

	var de *schema.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, schema.ReasonNotADocument, de.Reason)
	assert.Contains(t, err.Error(), "bad.ndjson: document 2")
}

func TestRun_SkipInvalid(t *testing.T) {
	input := strings.Join([]string{
		`{"a":1}`,
		`"scalar"`,
		`{"a":{"$oid":"nothex"}}`,
		`{"a":{"$minKey":1}}`,
		`{"a":2}`,
	}, "\n")
	src := ReaderSource("mixed.json", strings.NewReader(input))

	res, err := Run(context.Background(), []Source{src}, Options{SkipInvalid: true})
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.Model.DocumentCount())
	assert.Equal(t, []uint32{2, 3, 4}, res.Sources[0].Skipped.ToArray())
	assert.Equal(t, uint64(3), res.Skipped())
	assert.Equal(t, "2, 3, and 1 more", DescribeSkipped(res.Sources[0].Skipped, 2))
}

func TestRun_SkipInvalidLine(t *testing.T) {
	src := ReaderSource("x.jsonl", strings.NewReader("{\"a\":1}\n{\"a\": 2,}\n{\"a\":3}\n"))

	res, err := Run(context.Background(), []Source{src}, Options{SkipInvalid: true})
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.Model.DocumentCount())
	assert.Equal(t, 2, res.Sources[0].Documents)
	assert.Equal(t, []uint32{2}, res.Sources[0].Skipped.ToArray())

	_, err = Run(context.Background(), []Source{ReaderSource("x.jsonl", strings.NewReader("{\"a\":1}\n{\"a\": 2,}\n"))}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x.jsonl: document 2")
	assert.False(t, errors.Is(err, decode.ErrCorruptStream))
}

func TestRun_CorruptStreamIsFatalEvenWhenSkipping(t *testing.T) {
	raw, err := bson.Marshal(bson.D{{Key: "a", Value: int32(1)}})
	require.NoError(t, err)
	src := ReaderSource("broken.bson", bytes.NewReader(append(raw, 1, 0, 0, 0)))

	_, err = Run(context.Background(), []Source{src}, Options{SkipInvalid: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, decode.ErrCorruptStream)
}

func TestRun_SelectorAndDetection(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("items:\n  - {n: 1}\n  - {n: 2}\n"), 0o644))

	var buf bytes.Buffer
	raw, err := bson.Marshal(bson.D{{Key: "items", Value: bson.A{bson.D{{Key: "n", Value: "x"}}}}})
	require.NoError(t, err)
	buf.Write(raw)
	bsonPath := filepath.Join(dir, "dump.bson")
	require.NoError(t, os.WriteFile(bsonPath, buf.Bytes(), 0o644))

	sel, err := decode.NewSelector(".items[]")
	require.NoError(t, err)

	res, err := Run(context.Background(), []Source{FileSource(yamlPath), FileSource(bsonPath)}, Options{Workers: 2, Selector: sel})
	require.NoError(t, err)

	assert.Equal(t, decode.FormatYAML, res.Sources[0].Format)
	assert.Equal(t, decode.FormatBSON, res.Sources[1].Format)
	assert.Equal(t, int64(3), res.Model.DocumentCount())

	n, ok := snapshot(t, res.Model).Field("n")
	require.True(t, ok)
	assert.Equal(t, []string{"Int32", "String"}, n.KindNames())
}

func TestRun_MissingFile(t *testing.T) {
	_, err := Run(context.Background(), []Source{FileSource(filepath.Join(t.TempDir(), "nope.json"))}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, []Source{ReaderSource("x", strings.NewReader(`{"a":1}`))}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSourcesFromArgs(t *testing.T) {
	stdin := strings.NewReader("")
	sources := SourcesFromArgs(nil, stdin, "")
	require.Len(t, sources, 1)
	assert.Equal(t, "-", sources[0].Name)

	sources = SourcesFromArgs([]string{"a.json", "-", "-", "b.yaml"}, stdin, decode.FormatJSON)
	require.Len(t, sources, 3)
	assert.Equal(t, "b.yaml", sources[2].Name)
	assert.Equal(t, decode.FormatJSON, sources[2].Format)
}
