package codec

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/tordrt/dbdesigner/internal/schema"
	"gopkg.in/yaml.v2"
)

// EncodeYAML returns the YAML document for s, using the same field names as JSON
func EncodeYAML(s schema.Schema) ([]byte, error) {
	buf, err := yaml.Marshal(Normalize(s))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode schema as yaml")
	}
	return buf, nil
}

// DecodeYAML parses a YAML document and validates it exactly like DecodeJSON
func DecodeYAML(data []byte) (schema.Schema, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return schema.Schema{}, schema.NewValidation("malformed YAML: %s", err)
	}
	buf, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return schema.Schema{}, errors.Wrap(err, "failed to convert yaml to json")
	}
	return DecodeJSON(buf)
}

// jsonCompatible rewrites the map[interface{}]interface{} values yaml.v2 produces into string keyed maps
func jsonCompatible(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = jsonCompatible(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonCompatible(item)
		}
		return out
	}
	return v
}
