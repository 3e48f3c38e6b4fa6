package decode

import (
	"go.mongodb.org/mongo-driver/bson"
)

// parseBSON decodes one complete BSON document.
func parseBSON(data []byte) (any, error) {
	raw := bson.Raw(data)
	if err := raw.Validate(); err != nil {
		return nil, malformed(err)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, malformed(err)
	}
	return d, nil
}
