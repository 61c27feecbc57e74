// Package schema defines the in-memory representation of a database design:
// tables, columns, relationships and the engine the design targets.
//
// Values of these types are treated as immutable once they have been handed
// to the editor. Every change produces a new Schema value, which is what
// allows the history log to keep cheap snapshots.
package schema

// Engine selects the SQL dialect a schema is designed for
type Engine string

const (
	EngineMySQL      Engine = "mysql"
	EnginePostgreSQL Engine = "postgresql"
	EngineSQLServer  Engine = "sqlserver"
)

// Engines lists the supported engines in display order
func Engines() []Engine {
	return []Engine{EngineMySQL, EnginePostgreSQL, EngineSQLServer}
}

// IsKnown reports whether e is one of the supported engines
func (e Engine) IsKnown() bool {
	switch e {
	case EngineMySQL, EnginePostgreSQL, EngineSQLServer:
		return true
	}
	return false
}

// DefaultDatabaseName is the name given to a fresh design
const DefaultDatabaseName = "New Database"

// Schema is the root aggregate. Selection state is not part of it.
type Schema struct {
	Database Database `json:"database" yaml:"database"`
}

// Database holds the design itself
type Database struct {
	Name          string         `json:"name" yaml:"name"`
	Engine        Engine         `json:"engine" yaml:"engine"`
	Tables        []Table        `json:"tables" yaml:"tables"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
}

// Position is a canvas coordinate
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Table is a named collection of columns placed on the canvas
type Table struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Position    Position `json:"position" yaml:"position"`
	Columns     []Column `json:"columns" yaml:"columns"`
	Indexes     []Index  `json:"indexes" yaml:"indexes"`
}

// Column is one attribute of a table
type Column struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	DataType      DataType `json:"dataType" yaml:"dataType"`
	Length        *int     `json:"length,omitempty" yaml:"length,omitempty"`
	Precision     *int     `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale         *int     `json:"scale,omitempty" yaml:"scale,omitempty"`
	Values        []string `json:"values,omitempty" yaml:"values,omitempty"`
	Nullable      bool     `json:"nullable" yaml:"nullable"`
	DefaultValue  *string  `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	AutoIncrement bool     `json:"autoIncrement" yaml:"autoIncrement"`
	PrimaryKey    bool     `json:"primaryKey" yaml:"primaryKey"`
	Unique        bool     `json:"unique" yaml:"unique"`
	Index         bool     `json:"index" yaml:"index"`
	Comment       string   `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// IndexType is the kind of a named table index
type IndexType string

const (
	IndexPlain   IndexType = "INDEX"
	IndexUnique  IndexType = "UNIQUE"
	IndexPrimary IndexType = "PRIMARY"
)

// Index is a named index descriptor. Columns holds column ids.
type Index struct {
	Name    string    `json:"name" yaml:"name"`
	Type    IndexType `json:"type" yaml:"type"`
	Columns []string  `json:"columns" yaml:"columns"`
}

// RelationshipType is the cardinality of a relationship
type RelationshipType string

const (
	OneToOne   RelationshipType = "ONE_TO_ONE"
	OneToMany  RelationshipType = "ONE_TO_MANY"
	ManyToMany RelationshipType = "MANY_TO_MANY"
	// ManyToOne only appears in generated imports; it is handled like OneToMany.
	ManyToOne RelationshipType = "MANY_TO_ONE"
)

// IsKnown reports whether t is an accepted relationship type
func (t RelationshipType) IsKnown() bool {
	switch t {
	case OneToOne, OneToMany, ManyToMany, ManyToOne:
		return true
	}
	return false
}

// CascadeAction is applied to dependent rows when a referenced row changes
type CascadeAction string

const (
	Cascade  CascadeAction = "CASCADE"
	SetNull  CascadeAction = "SET_NULL"
	Restrict CascadeAction = "RESTRICT"
	NoAction CascadeAction = "NO_ACTION"
)

// IsKnown reports whether a is an accepted cascade action
func (a CascadeAction) IsKnown() bool {
	switch a {
	case Cascade, SetNull, Restrict, NoAction:
		return true
	}
	return false
}

// Keyword returns the SQL spelling of the action, e.g. "SET NULL"
func (a CascadeAction) Keyword() string {
	switch a {
	case SetNull:
		return "SET NULL"
	case NoAction:
		return "NO ACTION"
	}
	return string(a)
}

// Relationship is a foreign key from a source column to a target column.
// The source table holds the foreign key.
type Relationship struct {
	ID           string           `json:"id" yaml:"id"`
	Name         string           `json:"name" yaml:"name"`
	Type         RelationshipType `json:"type" yaml:"type"`
	SourceTable  string           `json:"sourceTable" yaml:"sourceTable"`
	SourceColumn string           `json:"sourceColumn" yaml:"sourceColumn"`
	TargetTable  string           `json:"targetTable" yaml:"targetTable"`
	TargetColumn string           `json:"targetColumn" yaml:"targetColumn"`
	OnDelete     CascadeAction    `json:"onDelete" yaml:"onDelete"`
	OnUpdate     CascadeAction    `json:"onUpdate" yaml:"onUpdate"`
}

// New returns an empty schema
func New(name string, engine Engine) Schema {
	return Schema{
		Database: Database{
			Name:          name,
			Engine:        engine,
			Tables:        []Table{},
			Relationships: []Relationship{},
		},
	}
}

// Default returns the schema a new editing session starts with
func Default() Schema {
	return New(DefaultDatabaseName, EngineMySQL)
}

// IntPtr is a convenience for optional integer fields
func IntPtr(v int) *int {
	return &v
}

// StringPtr is a convenience for optional string fields
func StringPtr(v string) *string {
	return &v
}
