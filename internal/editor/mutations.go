// Package editor holds the closed set of schema mutations, the selection model
// and the Session that ties them to an undo/redo history.
//
// Every mutation is a pure function: it returns a new schema built by copying
// the path to the changed entity and never writes into the slices of its input.
// When a mutation fails the input schema is returned together with the error, so
// a caller that ignores the error observes a no-op.
package editor

import (
	"fmt"
	"strings"

	"github.com/tordrt/dbdesigner/internal/schema"
)

// Endpoints are the four ids a relationship connects
type Endpoints struct {
	SourceTable  string `json:"sourceTable"`
	SourceColumn string `json:"sourceColumn"`
	TargetTable  string `json:"targetTable"`
	TargetColumn string `json:"targetColumn"`
}

const defaultColumnLength = 255

// AddTable appends a table holding a single primary key column named id and
// returns the new table id. The table is named table_<n+1>, bumped until unused.
func AddTable(s schema.Schema, ids IDGenerator, pos schema.Position) (schema.Schema, string) {
	n := len(s.Database.Tables) + 1
	name := fmt.Sprintf("table_%d", n)
	for s.HasTableName(name) {
		n++
		name = fmt.Sprintf("table_%d", n)
	}

	table := schema.Table{
		ID:       ids.NewID(PrefixTable),
		Name:     name,
		Position: pos,
		Columns: []schema.Column{
			{
				ID:            ids.NewID(PrefixColumn),
				Name:          "id",
				DataType:      schema.Int,
				Nullable:      false,
				AutoIncrement: true,
				PrimaryKey:    true,
				Unique:        true,
				Index:         true,
			},
		},
		Indexes: []schema.Index{},
	}

	out := s
	out.Database.Tables = append(copyTables(s.Database.Tables), table)
	return out, table.ID
}

// UpdateTable applies fn to a copy of the table. The table id cannot be changed.
// Relationships pointing at columns the mutator removed are dropped with them.
func UpdateTable(s schema.Schema, id string, fn func(*schema.Table)) (schema.Schema, error) {
	i := s.TableIndex(id)
	if i < 0 {
		return s, schema.NewNotFound(schema.KindTable, id)
	}
	updated := s.Database.Tables[i].Clone()
	fn(&updated)
	updated.ID = id

	out := s
	out.Database.Tables = copyTables(s.Database.Tables)
	out.Database.Tables[i] = updated
	out.Database.Relationships = filterRelationships(s.Database.Relationships, func(r schema.Relationship) bool {
		if r.SourceTable == id {
			if _, ok := updated.FindColumn(r.SourceColumn); !ok {
				return false
			}
		}
		if r.TargetTable == id {
			if _, ok := updated.FindColumn(r.TargetColumn); !ok {
				return false
			}
		}
		return true
	})
	return out, nil
}

// MoveTable sets the canvas position of a table
func MoveTable(s schema.Schema, id string, pos schema.Position) (schema.Schema, error) {
	i := s.TableIndex(id)
	if i < 0 {
		return s, schema.NewNotFound(schema.KindTable, id)
	}
	out := s
	out.Database.Tables = copyTables(s.Database.Tables)
	out.Database.Tables[i].Position = pos
	return out, nil
}

// DeleteTable removes a table and every relationship that references it
func DeleteTable(s schema.Schema, id string) (schema.Schema, error) {
	i := s.TableIndex(id)
	if i < 0 {
		return s, schema.NewNotFound(schema.KindTable, id)
	}
	out := s
	tables := make([]schema.Table, 0, len(s.Database.Tables)-1)
	tables = append(tables, s.Database.Tables[:i]...)
	out.Database.Tables = append(tables, s.Database.Tables[i+1:]...)
	out.Database.Relationships = filterRelationships(s.Database.Relationships, func(r schema.Relationship) bool {
		return !r.References(id)
	})
	return out, nil
}

// AddColumn appends a nullable VARCHAR(255) column named column_<n+1>, bumped
// until unused within the table, and returns its id.
func AddColumn(s schema.Schema, ids IDGenerator, tableID string) (schema.Schema, string, error) {
	i := s.TableIndex(tableID)
	if i < 0 {
		return s, "", schema.NewNotFound(schema.KindTable, tableID)
	}
	table := s.Database.Tables[i]

	n := len(table.Columns) + 1
	name := fmt.Sprintf("column_%d", n)
	for {
		if _, taken := table.FindColumnByName(name); !taken {
			break
		}
		n++
		name = fmt.Sprintf("column_%d", n)
	}

	col := schema.Column{
		ID:       ids.NewID(PrefixColumn),
		Name:     name,
		DataType: schema.Varchar,
		Length:   schema.IntPtr(defaultColumnLength),
		Nullable: true,
	}

	out := s
	out.Database.Tables = copyTables(s.Database.Tables)
	out.Database.Tables[i].Columns = append(copyColumns(table.Columns), col)
	return out, col.ID, nil
}

// UpdateColumn applies fn to a copy of the column. The column id cannot be
// changed and the new name must not be used by another column of the table.
func UpdateColumn(s schema.Schema, tableID, columnID string, fn func(*schema.Column)) (schema.Schema, error) {
	ti := s.TableIndex(tableID)
	if ti < 0 {
		return s, schema.NewNotFound(schema.KindTable, tableID)
	}
	table := s.Database.Tables[ti]
	ci := table.ColumnIndex(columnID)
	if ci < 0 {
		return s, schema.NewNotFound(schema.KindColumn, columnID)
	}

	updated := table.Columns[ci].Clone()
	fn(&updated)
	updated.ID = columnID

	if updated.Name != table.Columns[ci].Name {
		if other, taken := table.FindColumnByName(updated.Name); taken && other.ID != columnID {
			return s, &schema.ConflictError{Kind: schema.KindColumn, Name: updated.Name}
		}
	}

	out := s
	out.Database.Tables = copyTables(s.Database.Tables)
	cols := copyColumns(table.Columns)
	cols[ci] = updated
	out.Database.Tables[ti].Columns = cols
	return out, nil
}

// DeleteColumn removes a column and every relationship that uses it as an endpoint
func DeleteColumn(s schema.Schema, tableID, columnID string) (schema.Schema, error) {
	ti := s.TableIndex(tableID)
	if ti < 0 {
		return s, schema.NewNotFound(schema.KindTable, tableID)
	}
	table := s.Database.Tables[ti]
	ci := table.ColumnIndex(columnID)
	if ci < 0 {
		return s, schema.NewNotFound(schema.KindColumn, columnID)
	}

	cols := make([]schema.Column, 0, len(table.Columns)-1)
	cols = append(cols, table.Columns[:ci]...)
	cols = append(cols, table.Columns[ci+1:]...)

	out := s
	out.Database.Tables = copyTables(s.Database.Tables)
	out.Database.Tables[ti].Columns = cols
	out.Database.Tables[ti].Indexes = pruneIndexes(table.Indexes, columnID)
	out.Database.Relationships = filterRelationships(s.Database.Relationships, func(r schema.Relationship) bool {
		return !r.ReferencesColumn(columnID)
	})
	return out, nil
}

// AddRelationship connects two columns and returns the new relationship id.
// It defaults to ONE_TO_MANY named fk_<sourceTable>_<targetTable> with CASCADE on
// delete and update.
func AddRelationship(s schema.Schema, ids IDGenerator, e Endpoints) (schema.Schema, string, error) {
	if e.SourceTable == "" || e.SourceColumn == "" || e.TargetTable == "" || e.TargetColumn == "" {
		return s, "", schema.NewValidation("relationship requires source table, source column, target table and target column")
	}
	if err := checkEndpoints(s, e); err != nil {
		return s, "", err
	}

	rel := schema.Relationship{
		ID:           ids.NewID(PrefixRelationship),
		Name:         fmt.Sprintf("fk_%s_%s", e.SourceTable, e.TargetTable),
		Type:         schema.OneToMany,
		SourceTable:  e.SourceTable,
		SourceColumn: e.SourceColumn,
		TargetTable:  e.TargetTable,
		TargetColumn: e.TargetColumn,
		OnDelete:     schema.Cascade,
		OnUpdate:     schema.Cascade,
	}

	out := s
	out.Database.Relationships = append(copyRelationships(s.Database.Relationships), rel)
	return out, rel.ID, nil
}

// UpdateRelationship applies fn to a copy of the relationship. The id cannot be
// changed and the endpoints must still resolve afterwards.
func UpdateRelationship(s schema.Schema, id string, fn func(*schema.Relationship)) (schema.Schema, error) {
	i := s.RelationshipIndex(id)
	if i < 0 {
		return s, schema.NewNotFound(schema.KindRelationship, id)
	}
	updated := s.Database.Relationships[i]
	fn(&updated)
	updated.ID = id

	if err := checkEndpoints(s, Endpoints{
		SourceTable:  updated.SourceTable,
		SourceColumn: updated.SourceColumn,
		TargetTable:  updated.TargetTable,
		TargetColumn: updated.TargetColumn,
	}); err != nil {
		return s, err
	}
	if !updated.Type.IsKnown() {
		return s, schema.NewValidation("unknown relationship type %q", updated.Type)
	}
	if !updated.OnDelete.IsKnown() || !updated.OnUpdate.IsKnown() {
		return s, schema.NewValidation("unknown cascade action %q/%q", updated.OnDelete, updated.OnUpdate)
	}

	out := s
	out.Database.Relationships = copyRelationships(s.Database.Relationships)
	out.Database.Relationships[i] = updated
	return out, nil
}

// DeleteRelationship removes a relationship
func DeleteRelationship(s schema.Schema, id string) (schema.Schema, error) {
	if s.RelationshipIndex(id) < 0 {
		return s, schema.NewNotFound(schema.KindRelationship, id)
	}
	out := s
	out.Database.Relationships = filterRelationships(s.Database.Relationships, func(r schema.Relationship) bool {
		return r.ID != id
	})
	return out, nil
}

// UpdateDatabase renames the database and changes its engine in one step.
// Nil arguments are left alone. The returned bool reports whether anything
// differs from s.
func UpdateDatabase(s schema.Schema, name *string, engine *schema.Engine) (schema.Schema, bool, error) {
	if engine != nil && !engine.IsKnown() {
		return s, false, schema.NewValidation("unknown engine %q (use %s)", *engine, joinEngines())
	}
	out := s
	if name != nil {
		out.Database.Name = *name
	}
	if engine != nil {
		out.Database.Engine = *engine
	}
	return out, out.Database.Name != s.Database.Name || out.Database.Engine != s.Database.Engine, nil
}

func joinEngines() string {
	names := make([]string, 0, len(schema.Engines()))
	for _, e := range schema.Engines() {
		names = append(names, string(e))
	}
	return strings.Join(names, ", ")
}

func checkEndpoints(s schema.Schema, e Endpoints) error {
	src, ok := s.FindTable(e.SourceTable)
	if !ok {
		return schema.NewNotFound(schema.KindTable, e.SourceTable)
	}
	if _, ok := src.FindColumn(e.SourceColumn); !ok {
		return schema.NewNotFound(schema.KindColumn, e.SourceColumn)
	}
	tgt, ok := s.FindTable(e.TargetTable)
	if !ok {
		return schema.NewNotFound(schema.KindTable, e.TargetTable)
	}
	if _, ok := tgt.FindColumn(e.TargetColumn); !ok {
		return schema.NewNotFound(schema.KindColumn, e.TargetColumn)
	}
	return nil
}

func copyTables(in []schema.Table) []schema.Table {
	out := make([]schema.Table, len(in))
	copy(out, in)
	return out
}

func copyColumns(in []schema.Column) []schema.Column {
	out := make([]schema.Column, len(in))
	copy(out, in)
	return out
}

func copyRelationships(in []schema.Relationship) []schema.Relationship {
	out := make([]schema.Relationship, len(in))
	copy(out, in)
	return out
}

func filterRelationships(in []schema.Relationship, keep func(schema.Relationship) bool) []schema.Relationship {
	out := make([]schema.Relationship, 0, len(in))
	for _, r := range in {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// pruneIndexes drops a column id from every index and removes indexes left empty
func pruneIndexes(in []schema.Index, columnID string) []schema.Index {
	if in == nil {
		return nil
	}
	out := make([]schema.Index, 0, len(in))
	for _, idx := range in {
		cols := make([]string, 0, len(idx.Columns))
		for _, c := range idx.Columns {
			if c != columnID {
				cols = append(cols, c)
			}
		}
		if len(cols) == 0 {
			continue
		}
		idx.Columns = cols
		out = append(out, idx)
	}
	return out
}
