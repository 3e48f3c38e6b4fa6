package decode

import (
	"bytes"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// parseExtJSON decodes MongoDB Extended JSON. The value is wrapped in a
// single-field document so roots that are not documents (arrays, scalars,
// extended type wrappers) still decode and can be reported by the engine.
func parseExtJSON(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, malformed(errors.New("empty document"))
	}

	wrapped := make([]byte, 0, len(trimmed)+6)
	wrapped = append(wrapped, `{"v":`...)
	wrapped = append(wrapped, trimmed...)
	wrapped = append(wrapped, '}')

	var d bson.D
	if err := bson.UnmarshalExtJSON(wrapped, false, &d); err != nil {
		return nil, malformed(err)
	}
	if len(d) != 1 {
		return nil, malformed(errors.New("trailing data after document"))
	}
	return d[0].Value, nil
}
