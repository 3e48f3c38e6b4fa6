package schema

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind classifies the representation of a leaf value.
type Kind uint8

// Kinds in their canonical order.
const (
	KindNull Kind = iota
	KindBoolean
	KindInt32
	KindInt64
	KindDouble
	KindDecimal
	KindString
	KindBinary
	KindObjectID
	KindDateTime
	KindTimestamp
	KindRegExp
	KindArray
	KindDocument
)

var kindNames = [...]string{
	KindNull:      "Null",
	KindBoolean:   "Boolean",
	KindInt32:     "Int32",
	KindInt64:     "Int64",
	KindDouble:    "Double",
	KindDecimal:   "Decimal",
	KindString:    "String",
	KindBinary:    "Binary",
	KindObjectID:  "ObjectId",
	KindDateTime:  "DateTime",
	KindTimestamp: "Timestamp",
	KindRegExp:    "RegExp",
	KindArray:     "Array",
	KindDocument:  "Document",
}

// bsonAliases are the MongoDB $type aliases for each kind.
var bsonAliases = [...]string{
	KindNull:      "null",
	KindBoolean:   "bool",
	KindInt32:     "int",
	KindInt64:     "long",
	KindDouble:    "double",
	KindDecimal:   "decimal",
	KindString:    "string",
	KindBinary:    "binData",
	KindObjectID:  "objectId",
	KindDateTime:  "date",
	KindTimestamp: "timestamp",
	KindRegExp:    "regex",
	KindArray:     "array",
	KindDocument:  "object",
}

// Kinds returns every kind in canonical order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// BSONAlias returns the MongoDB $type alias, e.g. "long" for Int64.
func (k Kind) BSONAlias() string {
	if int(k) < len(bsonAliases) {
		return bsonAliases[k]
	}
	return ""
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("schema: invalid kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText accepts a kind name or BSON alias.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a kind name ("Int64") or BSON alias ("long"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	for i := range kindNames {
		if strings.EqualFold(s, kindNames[i]) || strings.EqualFold(s, bsonAliases[i]) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("schema: unknown kind %q", s)
}

// KindOf classifies a value. It returns an error for values outside the
// supported set (JavaScript code, MinKey/MaxKey, DBPointer, arbitrary Go types).
func KindOf(v any) (Kind, error) {
	k, _, err := classify(v)
	return k, err
}

// classify returns the kind of v and its normalized form. Normalization maps
// Go convenience types onto the bson value set: unordered maps become bson.D
// in sorted key order, ints become int32/int64 by range, time.Time becomes
// primitive.DateTime. Explicit int64 values stay Int64.
func classify(v any) (Kind, any, error) {
	switch val := v.(type) {
	case nil:
		return KindNull, nil, nil
	case primitive.Null, primitive.Undefined:
		return KindNull, nil, nil
	case bool:
		return KindBoolean, val, nil
	case int32:
		return KindInt32, val, nil
	case int8:
		return KindInt32, int32(val), nil
	case int16:
		return KindInt32, int32(val), nil
	case uint8:
		return KindInt32, int32(val), nil
	case uint16:
		return KindInt32, int32(val), nil
	case int64:
		return KindInt64, val, nil
	case int:
		return integerKind(int64(val))
	case uint32:
		return integerKind(int64(val))
	case uint:
		if uint64(val) > math.MaxInt64 {
			return 0, nil, fmt.Errorf("unsigned integer %d overflows int64", val)
		}
		return integerKind(int64(val))
	case uint64:
		if val > math.MaxInt64 {
			return 0, nil, fmt.Errorf("unsigned integer %d overflows int64", val)
		}
		return integerKind(int64(val))
	case float64:
		return KindDouble, val, nil
	case float32:
		return KindDouble, float64(val), nil
	case primitive.Decimal128:
		return KindDecimal, val, nil
	case string:
		return KindString, val, nil
	case primitive.Symbol:
		return KindString, string(val), nil
	case []byte:
		return KindBinary, primitive.Binary{Data: append([]byte(nil), val...)}, nil
	case primitive.Binary:
		return KindBinary, val, nil
	case primitive.ObjectID:
		return KindObjectID, val, nil
	case primitive.DateTime:
		return KindDateTime, val, nil
	case time.Time:
		return KindDateTime, primitive.NewDateTimeFromTime(val), nil
	case primitive.Timestamp:
		return KindTimestamp, val, nil
	case primitive.Regex:
		return KindRegExp, val, nil
	case bson.A:
		return KindArray, val, nil
	case []any:
		return KindArray, bson.A(val), nil
	case bson.D:
		return KindDocument, val, nil
	case bson.M:
		return KindDocument, sortedDocument(val), nil
	case map[string]any:
		return KindDocument, sortedDocument(val), nil
	case bson.Raw:
		var d bson.D
		if err := bson.Unmarshal(val, &d); err != nil {
			return 0, nil, fmt.Errorf("invalid raw document: %w", err)
		}
		return KindDocument, d, nil
	default:
		return 0, nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

func integerKind(v int64) (Kind, any, error) {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return KindInt32, int32(v), nil
	}
	return KindInt64, v, nil
}

func sortedDocument(m map[string]any) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: m[k]})
	}
	return d
}
