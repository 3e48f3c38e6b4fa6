package decode

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"

	"github.com/usestring/docschema/pkg/schema"
)

func (d *Decoder) parseYAML(data []byte) (any, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, malformed(err)
	}
	return d.fromYAML(&n)
}

// fromYAML converts a YAML document node. Alias expansion counts towards the
// depth limit, so self-referencing anchors fail instead of recursing.
func (d *Decoder) fromYAML(n *yaml.Node) (any, error) {
	return yamlValue(n, 0, "", d.maxDepth)
}

func yamlValue(n *yaml.Node, depth int, path string, max int) (any, error) {
	if depth > max {
		return nil, schema.NewDecodeError(schema.ReasonTooDeep, path, fmt.Errorf("nesting exceeds %d levels", max))
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0], depth, path, max)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, malformed(fmt.Errorf("line %d: dangling alias", n.Line))
		}
		return yamlValue(n.Alias, depth+1, path, max)
	case yaml.MappingNode:
		doc := make(bson.D, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, malformed(fmt.Errorf("line %d: mapping keys must be scalars", k.Line))
			}
			x, err := yamlValue(v, depth+1, joinPath(path, k.Value), max)
			if err != nil {
				return nil, err
			}
			doc = append(doc, bson.E{Key: k.Value, Value: x})
		}
		return doc, nil
	case yaml.SequenceNode:
		arr := make(bson.A, 0, len(n.Content))
		for i, c := range n.Content {
			x, err := yamlValue(c, depth+1, joinPath(path, fmt.Sprint(i)), max)
			if err != nil {
				return nil, err
			}
			arr = append(arr, x)
		}
		return arr, nil
	case yaml.ScalarNode:
		v, err := yamlScalar(n)
		if err != nil {
			return nil, malformed(fmt.Errorf("line %d: %w", n.Line, err))
		}
		return v, nil
	}
	return nil, malformed(fmt.Errorf("line %d: unexpected node kind %d", n.Line, n.Kind))
}

func yamlScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			// Out of int64 range; keep the magnitude.
			var f float64
			if ferr := n.Decode(&f); ferr != nil {
				return nil, err
			}
			return f, nil
		}
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
		return i, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, err
		}
		return primitive.NewDateTimeFromTime(t), nil
	case "!!binary":
		data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, err
		}
		return primitive.Binary{Data: data}, nil
	}
	return n.Value, nil
}
