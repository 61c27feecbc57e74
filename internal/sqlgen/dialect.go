package sqlgen

import (
	"github.com/tordrt/dbdesigner/internal/schema"
)

// Dialect captures everything that differs between engines when emitting DDL.
// Adding an engine means adding one implementation and a case in DialectFor.
type Dialect interface {
	// Name is the engine the dialect emits for
	Name() schema.Engine
	// MapType converts a generic type into the engine's spelling, before any length suffix
	MapType(t schema.DataType) string
	// AutoIncrement rewrites the column type and returns the clause appended after the default
	AutoIncrement(colType string) (typ string, suffix string)
	// SupportsComment reports whether inline column comments are emitted
	SupportsComment() bool
	// TableOptions is appended after the closing parenthesis of CREATE TABLE
	TableOptions() string
	// UniqueConstraint renders the table-level unique constraint line body
	UniqueConstraint(table, column string) string
	// Literal quotes a string literal
	Literal(v string) string
}

// DialectFor returns the dialect for an engine, falling back to MySQL for unknown engines
func DialectFor(engine schema.Engine) Dialect {
	switch engine {
	case schema.EnginePostgreSQL:
		return PostgreSQL{}
	case schema.EngineSQLServer:
		return SQLServer{}
	}
	return MySQL{}
}

// mapWith looks a type up in an override table, leaving unlisted types unchanged
func mapWith(overrides map[schema.DataType]string, t schema.DataType) string {
	if v, ok := overrides[t]; ok {
		return v
	}
	return string(t)
}
