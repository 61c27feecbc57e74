package schema

import (
	"encoding/json"
)

type columnFields Column

// UnmarshalJSON decodes a column, accepting "default" as an alias of "defaultValue".
// Decoding merges into the receiver, so a partial document only changes the fields it names.
func (c *Column) UnmarshalJSON(data []byte) error {
	aux := struct {
		*columnFields
		DefaultValue json.RawMessage `json:"defaultValue"`
		Default      json.RawMessage `json:"default"`
	}{columnFields: (*columnFields)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	raw := aux.DefaultValue
	if raw == nil {
		raw = aux.Default
	}
	if raw == nil {
		return nil
	}
	if string(raw) == "null" {
		c.DefaultValue = nil
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		c.DefaultValue = StringPtr(val)
	default:
		// numbers and booleans keep their literal spelling
		c.DefaultValue = StringPtr(string(raw))
	}
	return nil
}
