// Package ingest builds a schema model from many document sources in
// parallel.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/docschema/pkg/decode"
	"github.com/usestring/docschema/pkg/schema"
)

// sniffBytes is how much of a source is inspected for format detection.
const sniffBytes = 512

// Source is one stream of documents.
type Source struct {
	Name   string                        // File name, used for detection and messages
	Format decode.Format                 // Empty = detect from name and content
	Open   func() (io.ReadCloser, error) // Called once, from a worker
}

// FileSource returns a source reading the file at path.
func FileSource(path string) Source {
	return Source{
		Name: path,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// ReaderSource returns a source reading r. r is not closed.
func ReaderSource(name string, r io.Reader) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

// Options configures Run.
type Options struct {
	Workers       int  // Sources decoded concurrently (default 1)
	SkipInvalid   bool // Skip documents that fail to decode or ingest instead of failing
	Selector      *decode.Selector
	ModelOptions  []schema.Option
	DecodeOptions []decode.Option
}

// SourceStats reports what was read from one source.
type SourceStats struct {
	Name      string
	Format    decode.Format
	Documents int             // Trees ingested
	Skipped   *roaring.Bitmap // 1-based ordinals of skipped source documents
}

// Result is the outcome of Run.
type Result struct {
	Model   *schema.Model
	Sources []SourceStats
}

// Skipped returns the number of skipped documents across all sources.
func (r *Result) Skipped() uint64 {
	var n uint64
	for _, s := range r.Sources {
		n += s.Skipped.GetCardinality()
	}
	return n
}

// Run ingests every source. Each source is decoded into its own model by a
// bounded worker pool; the models are merged in source order, so the result
// equals ingesting the sources one after the other.
func Run(ctx context.Context, sources []Source, opts Options) (*Result, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	models := make([]*schema.Model, len(sources))
	stats := make([]SourceStats, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			m, st, err := ingestSource(ctx, src, opts)
			if err != nil {
				return err
			}
			models[i], stats[i] = m, st

			slog.Debug("source ingested",
				slog.String("source", src.Name),
				slog.String("format", string(st.Format)),
				slog.Int("documents", st.Documents),
				slog.Uint64("skipped", st.Skipped.GetCardinality()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := schema.New(opts.ModelOptions...)
	for _, m := range models {
		merged.Merge(m)
	}
	return &Result{Model: merged, Sources: stats}, nil
}

func ingestSource(ctx context.Context, src Source, opts Options) (*schema.Model, SourceStats, error) {
	st := SourceStats{Name: src.Name, Skipped: roaring.New()}

	rc, err := src.Open()
	if err != nil {
		return nil, st, fmt.Errorf("open %s: %w", src.Name, err)
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	st.Format = src.Format
	if st.Format == "" {
		head, _ := br.Peek(sniffBytes)
		st.Format = decode.DetectFormat(src.Name, head)
	}

	decOpts := opts.DecodeOptions
	if opts.Selector != nil {
		decOpts = append(decOpts[:len(decOpts):len(decOpts)], decode.WithSelector(opts.Selector))
	}
	dec, err := decode.New(st.Format, decOpts...)
	if err != nil {
		return nil, st, fmt.Errorf("%s: %w", src.Name, err)
	}

	m := schema.New(opts.ModelOptions...)
	r := decode.NewReader(br, dec)
	for {
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}

		tree, err := r.Next()
		if err == io.EOF {
			break
		}
		if err == nil {
			err = m.Ingest(tree)
		}
		if err == nil {
			st.Documents++
			continue
		}

		if !opts.SkipInvalid || !skippable(err) {
			return nil, st, fmt.Errorf("%s: document %d: %w", src.Name, r.Ordinal(), err)
		}
		st.Skipped.Add(uint32(r.Ordinal()))
		slog.Warn("skipping invalid document",
			slog.String("source", src.Name),
			slog.Int("ordinal", r.Ordinal()),
			slog.String("error", err.Error()),
		)
	}
	return m, st, nil
}

// skippable reports whether err only affects the current document.
func skippable(err error) bool {
	return schema.IsDecodeError(err) && !errors.Is(err, decode.ErrCorruptStream)
}

// SourcesFromArgs maps command-line arguments to sources. "-" (or no
// arguments) reads stdin; stdin is read at most once.
func SourcesFromArgs(args []string, stdin io.Reader, format decode.Format) []Source {
	if len(args) == 0 {
		args = []string{"-"}
	}
	sources := make([]Source, 0, len(args))
	stdinUsed := false
	for _, arg := range args {
		var src Source
		if arg == "-" {
			if stdinUsed {
				continue
			}
			stdinUsed = true
			src = ReaderSource("-", stdin)
		} else {
			src = FileSource(arg)
		}
		src.Format = format
		sources = append(sources, src)
	}
	return sources
}

// DescribeSkipped formats skipped ordinals for messages. Long runs are
// truncated.
func DescribeSkipped(b *roaring.Bitmap, max int) string {
	if b.IsEmpty() {
		return ""
	}
	var parts []string
	it := b.Iterator()
	for it.HasNext() && len(parts) < max {
		parts = append(parts, fmt.Sprint(it.Next()))
	}
	if rest := b.GetCardinality() - uint64(len(parts)); rest > 0 {
		parts = append(parts, fmt.Sprintf("and %d more", rest))
	}
	return strings.Join(parts, ", ")
}
