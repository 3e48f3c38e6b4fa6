package decode

import (
	"fmt"
	"math"
	"strconv"

	"github.com/valyala/fastjson"
	"go.mongodb.org/mongo-driver/bson"
)

var jsonParsers fastjson.ParserPool

// parsePlainJSON decodes plain JSON. Keys keep their input order and "$"
// prefixed keys are ordinary keys.
func parsePlainJSON(data []byte) (any, error) {
	p := jsonParsers.Get()
	defer jsonParsers.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, malformed(err)
	}
	out, err := fromFastJSON(v)
	if err != nil {
		return nil, malformed(err)
	}
	return out, nil
}

// fromFastJSON copies a parsed value out of the parser's memory.
func fromFastJSON(v *fastjson.Value) (any, error) {
	switch v.Type() {
	case fastjson.TypeNull:
		return nil, nil
	case fastjson.TypeTrue:
		return true, nil
	case fastjson.TypeFalse:
		return false, nil
	case fastjson.TypeString:
		b, err := v.StringBytes()
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case fastjson.TypeNumber:
		return parseNumber(string(v.MarshalTo(nil)))
	case fastjson.TypeArray:
		items, err := v.Array()
		if err != nil {
			return nil, err
		}
		arr := make(bson.A, 0, len(items))
		for _, item := range items {
			x, err := fromFastJSON(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, x)
		}
		return arr, nil
	case fastjson.TypeObject:
		obj, err := v.Object()
		if err != nil {
			return nil, err
		}
		doc := make(bson.D, 0, obj.Len())
		var visitErr error
		obj.Visit(func(key []byte, val *fastjson.Value) {
			if visitErr != nil {
				return
			}
			x, err := fromFastJSON(val)
			if err != nil {
				visitErr = err
				return
			}
			doc = append(doc, bson.E{Key: string(key), Value: x})
		})
		if visitErr != nil {
			return nil, visitErr
		}
		return doc, nil
	}
	return nil, fmt.Errorf("unexpected JSON value type %s", v.Type())
}

// parseNumber maps integer literals to int32 or int64 by range and
// everything else to float64.
func parseNumber(lit string) (any, error) {
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
		return i, nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", lit, err)
	}
	return f, nil
}
