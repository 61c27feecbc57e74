// Package codec converts schemas to and from their JSON and YAML document forms.
//
// Decoding is the only trust boundary of the designer: a document is checked
// for the minimal shape first, then against the embedded JSON Schema and finally
// for referential consistency. A rejected document never yields a partial schema.
package codec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	js "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tordrt/dbdesigner/internal/schema"
)

//go:embed schema.json
var documentSchemaJSON []byte

const documentSchemaURL = "file:///dbdesigner/schema.json"

var (
	compileOnce    sync.Once
	documentSchema *js.Schema
	compileErr     error
)

func compiledSchema() (*js.Schema, error) {
	compileOnce.Do(func() {
		compiler := js.NewCompiler()
		if err := compiler.AddResource(documentSchemaURL, bytes.NewReader(documentSchemaJSON)); err != nil {
			compileErr = errors.Wrap(err, "failed to add document schema")
			return
		}
		documentSchema, compileErr = compiler.Compile(documentSchemaURL)
		if compileErr != nil {
			compileErr = errors.Wrap(compileErr, "failed to compile document schema")
		}
	})
	return documentSchema, compileErr
}

// EncodeJSON returns the indented JSON document for s. Selection state is not
// part of a schema and therefore never written.
func EncodeJSON(s schema.Schema) ([]byte, error) {
	buf, err := json.MarshalIndent(Normalize(s), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode schema")
	}
	return buf, nil
}

// DecodeJSON parses and validates a schema document. Unknown fields such as
// selectedTableId are ignored. Every rejection is a *schema.ValidationError.
func DecodeJSON(data []byte) (schema.Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return schema.Schema{}, schema.NewValidation("malformed JSON: %s", err)
	}
	if err := checkShape(doc); err != nil {
		return schema.Schema{}, err
	}

	compiled, err := compiledSchema()
	if err != nil {
		return schema.Schema{}, err
	}
	if err := compiled.Validate(doc); err != nil {
		var ve *js.ValidationError
		if errors.As(err, &ve) {
			return schema.Schema{}, &schema.ValidationError{Problems: flatten(ve, nil)}
		}
		return schema.Schema{}, errors.Wrap(err, "failed to validate schema document")
	}

	var s schema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return schema.Schema{}, schema.NewValidation("failed to decode schema: %s", err)
	}
	s = Normalize(s)
	if err := schema.Validate(s); err != nil {
		return schema.Schema{}, err
	}
	return s, nil
}

// checkShape is the minimum contract: database is an object holding tables and relationships arrays
func checkShape(doc any) error {
	root, ok := doc.(map[string]any)
	if !ok {
		return schema.NewValidation("document must be an object")
	}
	db, ok := root["database"].(map[string]any)
	if !ok {
		return schema.NewValidation("database must be an object")
	}
	if _, ok := db["tables"].([]any); !ok {
		return schema.NewValidation("database.tables must be an array")
	}
	if _, ok := db["relationships"].([]any); !ok {
		return schema.NewValidation("database.relationships must be an array")
	}
	return nil
}

func flatten(ve *js.ValidationError, out []string) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, fmt.Sprintf("%s: %s", loc, ve.Message))
	}
	for _, cause := range ve.Causes {
		out = flatten(cause, out)
	}
	return out
}

// Normalize replaces nil slices with empty ones and fills omitted cascade
// actions with NO_ACTION so a decoded document matches what the editor builds.
func Normalize(s schema.Schema) schema.Schema {
	out := s.Clone()
	if out.Database.Tables == nil {
		out.Database.Tables = []schema.Table{}
	}
	if out.Database.Relationships == nil {
		out.Database.Relationships = []schema.Relationship{}
	}
	for i := range out.Database.Tables {
		t := &out.Database.Tables[i]
		if t.Columns == nil {
			t.Columns = []schema.Column{}
		}
		if t.Indexes == nil {
			t.Indexes = []schema.Index{}
		}
		for j := range t.Indexes {
			if t.Indexes[j].Columns == nil {
				t.Indexes[j].Columns = []string{}
			}
		}
	}
	for i := range out.Database.Relationships {
		r := &out.Database.Relationships[i]
		if r.OnDelete == "" {
			r.OnDelete = schema.NoAction
		}
		if r.OnUpdate == "" {
			r.OnUpdate = schema.NoAction
		}
	}
	return out
}
