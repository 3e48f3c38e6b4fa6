package decode

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// ErrCorruptStream marks a failure after which no further documents can be
// framed from the stream. It is always wrapped in a *schema.DecodeError.
var ErrCorruptStream = errors.New("corrupt document stream")

// Reader streams documents out of an io.Reader.
//
// JSON formats are framed by line. A line may hold several values and a
// value may span lines when pretty-printed. YAML accepts "---" separated
// multi-document streams and BSON accepts concatenated documents as written
// by mongodump.
type Reader struct {
	dec     *Decoder
	frame   func() (any, error)
	pending []any
	ordinal int
	err     error
}

// NewReader returns a reader decoding r with d.
func NewReader(r io.Reader, d *Decoder) *Reader {
	rd := &Reader{dec: d}
	switch d.format {
	case FormatYAML:
		rd.frame = yamlFrames(yaml.NewDecoder(r), d)
	case FormatBSON:
		rd.frame = bsonFrames(bufio.NewReader(r), d)
	default:
		jf := &jsonFramer{br: bufio.NewReader(r), d: d}
		rd.frame = jf.next
	}
	return rd
}

// Ordinal returns the 1-based ordinal of the source document that produced
// the last value (or error) returned by Next.
func (r *Reader) Ordinal() int { return r.ordinal }

// Next returns the next tree, or io.EOF when the stream is exhausted.
// Errors wrapping ErrCorruptStream are sticky; any other error only
// affects the current source document.
func (r *Reader) Next() (any, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		tree, err := r.frame()
		if err == io.EOF {
			r.err = io.EOF
			return nil, io.EOF
		}
		if errors.Is(err, ErrCorruptStream) {
			r.ordinal++
			r.err = err
			return nil, err
		}
		r.ordinal++
		if err != nil {
			return nil, err
		}
		if err := checkDepth(tree, r.dec.maxDepth); err != nil {
			return nil, err
		}
		out, err := r.dec.sel(tree)
		if err != nil {
			return nil, err
		}
		r.pending = out
	}
	tree := r.pending[0]
	r.pending = r.pending[1:]
	return tree, nil
}

func corrupt(err error) error {
	return malformed(fmt.Errorf("%w: %w", ErrCorruptStream, err))
}

// jsonFramer frames JSON values line by line. A value left open at the end
// of its line is read on as a pretty-printed value spanning lines. Every
// failure is scoped to one document and framing resumes at the next line.
type jsonFramer struct {
	br      *bufio.Reader
	d       *Decoder
	pending []byte // read but not yet framed
}

func (f *jsonFramer) next() (any, error) {
	for {
		line, err := f.readLine()
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		jd := json.NewDecoder(bytes.NewReader(line))
		var raw json.RawMessage
		err = jd.Decode(&raw)
		switch {
		case err == nil:
			if rest := line[jd.InputOffset():]; len(bytes.TrimSpace(rest)) > 0 {
				f.pending = append(append([]byte(nil), rest...), f.pending...)
			}
			return f.d.parse(raw)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return f.continued(line)
		default:
			return nil, malformed(err)
		}
	}
}

// readLine returns the next line including its newline. Lines longer than
// the document limit are discarded and reported as malformed.
func (f *jsonFramer) readLine() ([]byte, error) {
	if i := bytes.IndexByte(f.pending, '\n'); i >= 0 {
		line := f.pending[:i+1]
		f.pending = f.pending[i+1:]
		return line, nil
	}
	line := f.pending
	f.pending = nil
	for {
		chunk, err := f.br.ReadSlice('\n')
		if err != nil && !errors.Is(err, bufio.ErrBufferFull) && !errors.Is(err, io.EOF) {
			return nil, corrupt(err)
		}
		if len(line)+len(chunk) > f.d.maxBytes {
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = f.br.ReadSlice('\n')
			}
			return nil, malformed(fmt.Errorf("line exceeds limit of %d bytes", f.d.maxBytes))
		}
		line = append(line, chunk...)
		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, io.EOF):
			if len(line) == 0 {
				return nil, io.EOF
			}
			return line, nil
		}
	}
}

// continued decodes a value that starts on first and spans further lines.
// On failure first is dropped and everything read after it is framed again.
func (f *jsonFramer) continued(first []byte) (any, error) {
	rest := f.pending
	f.pending = nil

	var read bytes.Buffer
	lr := &io.LimitedReader{R: f.br, N: int64(f.d.maxBytes)}
	jd := json.NewDecoder(io.MultiReader(
		bytes.NewReader(first),
		bytes.NewReader(rest),
		io.TeeReader(lr, &read),
	))

	var raw json.RawMessage
	if err := jd.Decode(&raw); err != nil {
		f.pending = append(append([]byte(nil), rest...), read.Bytes()...)
		if lr.N == 0 {
			return nil, malformed(fmt.Errorf("document exceeds limit of %d bytes", f.d.maxBytes))
		}
		return nil, malformed(err)
	}

	leftover, err := io.ReadAll(jd.Buffered())
	if err != nil {
		return nil, corrupt(err)
	}
	f.pending = leftover
	if len(raw) > f.d.maxBytes {
		return nil, malformed(fmt.Errorf("document of %d bytes exceeds limit of %d", len(raw), f.d.maxBytes))
	}
	return f.d.parse(raw)
}

func yamlFrames(yd *yaml.Decoder, d *Decoder) func() (any, error) {
	return func() (any, error) {
		var n yaml.Node
		if err := yd.Decode(&n); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, corrupt(err)
		}
		return d.fromYAML(&n)
	}
}

func bsonFrames(br *bufio.Reader, d *Decoder) func() (any, error) {
	return func() (any, error) {
		head, err := br.Peek(4)
		if err != nil {
			if errors.Is(err, io.EOF) && len(head) == 0 {
				return nil, io.EOF
			}
			return nil, corrupt(fmt.Errorf("truncated length prefix: %w", err))
		}
		size := int64(binary.LittleEndian.Uint32(head))
		if size < 5 || size > int64(d.maxBytes) {
			return nil, corrupt(fmt.Errorf("document length %d out of range", size))
		}
		raw, err := bson.NewFromIOReader(br)
		if err != nil {
			return nil, corrupt(err)
		}
		return parseBSON(raw)
	}
}
