package encode

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompactOptions bounds the size of rendered sample values.
type CompactOptions struct {
	MaxArrayItems int // Trim arrays to N items (0 = no limit)
	MaxStringLen  int // Truncate strings longer than N bytes (0 = no limit)
	MaxDepth      int // Replace values nested deeper than N (0 = unlimited)
}

// Default values for compaction options.
const (
	DefaultMaxArrayItems = 3
	DefaultMaxStringLen  = 200
	DefaultMaxDepth      = 0 // unlimited
)

// DefaultCompactOptions returns the default compaction settings.
func DefaultCompactOptions() *CompactOptions {
	return &CompactOptions{
		MaxArrayItems: DefaultMaxArrayItems,
		MaxStringLen:  DefaultMaxStringLen,
		MaxDepth:      DefaultMaxDepth,
	}
}

// Compact returns a trimmed copy of a sample value. The input is not
// modified. Markers are strings, so a compacted array or document may no
// longer match the kind it was sampled as.
func Compact(v any, opts *CompactOptions) any {
	if opts == nil {
		opts = DefaultCompactOptions()
	}
	return compactValue(v, opts, 0)
}

func compactValue(v any, opts *CompactOptions, depth int) any {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		switch v.(type) {
		case bson.A, bson.D:
			return "[max depth]"
		}
	}

	switch val := v.(type) {
	case string:
		return compactString(val, opts)
	case bson.A:
		return compactArray(val, opts, depth)
	case bson.D:
		out := make(bson.D, len(val))
		for i, e := range val {
			out[i] = bson.E{Key: e.Key, Value: compactValue(e.Value, opts, depth+1)}
		}
		return out
	case primitive.Binary:
		if opts.MaxStringLen > 0 && len(val.Data) > opts.MaxStringLen {
			return primitive.Binary{Subtype: val.Subtype, Data: val.Data[:opts.MaxStringLen:opts.MaxStringLen]}
		}
		return val
	default:
		return v
	}
}

func compactString(s string, opts *CompactOptions) string {
	if opts.MaxStringLen <= 0 || len(s) <= opts.MaxStringLen {
		return s
	}
	cut := opts.MaxStringLen
	// Back up to a rune boundary.
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + fmt.Sprintf("... (%d more bytes)", len(s)-cut)
}

func compactArray(arr bson.A, opts *CompactOptions, depth int) bson.A {
	n := len(arr)
	if opts.MaxArrayItems > 0 && n > opts.MaxArrayItems {
		n = opts.MaxArrayItems
	}
	out := make(bson.A, 0, n+1)
	for _, item := range arr[:n] {
		out = append(out, compactValue(item, opts, depth+1))
	}
	if n < len(arr) {
		out = append(out, fmt.Sprintf("... (%d more items)", len(arr)-n))
	}
	return out
}
