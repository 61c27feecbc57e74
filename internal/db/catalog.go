package db

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/tordrt/dbdesigner/internal/schema"
)

// Catalog is what an extractor reads from a live database, before it is
// turned into a design. Names are the database's own identifiers.
type Catalog struct {
	Tables []TableInfo
}

// TableInfo describes one base table
type TableInfo struct {
	Name        string
	Comment     string
	Columns     []ColumnInfo
	PrimaryKey  []string
	ForeignKeys []ForeignKeyInfo
	Indexes     []IndexInfo
}

// ColumnInfo describes one column. NativeType is the engine's spelling,
// optionally with a size such as varchar(64) or decimal(10,2).
type ColumnInfo struct {
	Name          string
	NativeType    string
	Length        *int
	Precision     *int
	Scale         *int
	Values        []string
	Nullable      bool
	Default       *string
	AutoIncrement bool
	Unique        bool
	Comment       string
}

// ForeignKeyInfo is a single-column foreign key. Rules use SQL spelling,
// e.g. "SET NULL". An empty TargetColumn means the target's primary key.
type ForeignKeyInfo struct {
	Name         string
	Column       string
	TargetTable  string
	TargetColumn string
	OnDelete     string
	OnUpdate     string
}

// IndexInfo is a secondary index; primary key indexes are not listed
type IndexInfo struct {
	Name    string
	Unique  bool
	Columns []string
}

// Extractor reads a catalog from a live database. An empty table list
// means every base table.
type Extractor interface {
	ExtractCatalog(ctx context.Context, tables []string) (*Catalog, error)
}

// Introspect extracts a catalog and builds a design from it
func Introspect(ctx context.Context, ex Extractor, tables []string, name string, engine schema.Engine) (schema.Schema, error) {
	catalog, err := ex.ExtractCatalog(ctx, tables)
	if err != nil {
		return schema.Schema{}, errors.Wrap(err, "failed to extract catalog")
	}
	return BuildSchema(catalog, name, engine)
}

// Layout of introspected tables on the canvas
const (
	gridColumns = 4
	gridSpacing = 320.0
	gridOrigin  = 40.0
)

// TableID is the id BuildSchema gives a table
func TableID(table string) string {
	return "table_" + table
}

// ColumnID is the id BuildSchema gives a column
func ColumnID(table, column string) string {
	return fmt.Sprintf("col_%s_%s", table, column)
}

// BuildSchema converts a catalog into a design. Ids are derived from names so
// introspecting the same database twice yields the same schema. Foreign keys
// pointing at tables outside the catalog are dropped.
func BuildSchema(catalog *Catalog, name string, engine schema.Engine) (schema.Schema, error) {
	if !engine.IsKnown() {
		return schema.Schema{}, schema.NewValidation("unknown engine %q", engine)
	}
	s := schema.New(name, engine)
	if catalog == nil {
		return s, nil
	}

	present := make(map[string]*TableInfo, len(catalog.Tables))
	for i := range catalog.Tables {
		present[catalog.Tables[i].Name] = &catalog.Tables[i]
	}

	for i, info := range catalog.Tables {
		s.Database.Tables = append(s.Database.Tables, buildTable(info, i))
	}

	for _, info := range catalog.Tables {
		for _, fk := range info.ForeignKeys {
			target, ok := present[fk.TargetTable]
			if ok && fk.TargetColumn == "" && len(target.PrimaryKey) == 1 {
				// a foreign key without a column list references the primary key
				fk.TargetColumn = target.PrimaryKey[0]
			}
			if !ok || !hasColumn(target, fk.TargetColumn) || !hasColumn(&info, fk.Column) {
				continue
			}
			relType := schema.OneToMany
			if isUniqueColumn(info, fk.Column) {
				relType = schema.OneToOne
			}
			fkName := fk.Name
			if fkName == "" {
				fkName = fmt.Sprintf("fk_%s_%s", info.Name, fk.TargetTable)
			}
			s.Database.Relationships = append(s.Database.Relationships, schema.Relationship{
				ID:           fmt.Sprintf("rel_%d", len(s.Database.Relationships)+1),
				Name:         fkName,
				Type:         relType,
				SourceTable:  TableID(info.Name),
				SourceColumn: ColumnID(info.Name, fk.Column),
				TargetTable:  TableID(fk.TargetTable),
				TargetColumn: ColumnID(fk.TargetTable, fk.TargetColumn),
				OnDelete:     ParseRule(fk.OnDelete),
				OnUpdate:     ParseRule(fk.OnUpdate),
			})
		}
	}

	if err := schema.Validate(s); err != nil {
		return schema.Schema{}, errors.Wrap(err, "failed to build schema from catalog")
	}
	return s, nil
}

func buildTable(info TableInfo, position int) schema.Table {
	table := schema.Table{
		ID:          TableID(info.Name),
		Name:        info.Name,
		Description: info.Comment,
		Position: schema.Position{
			X: gridOrigin + float64(position%gridColumns)*gridSpacing,
			Y: gridOrigin + float64(position/gridColumns)*gridSpacing,
		},
		Columns: make([]schema.Column, 0, len(info.Columns)),
		Indexes: []schema.Index{},
	}

	pk := map[string]bool{}
	for _, c := range info.PrimaryKey {
		pk[c] = true
	}
	indexed := map[string]bool{}
	uniqueIdx := map[string]bool{}
	for _, idx := range info.Indexes {
		if len(idx.Columns) != 1 {
			continue
		}
		indexed[idx.Columns[0]] = true
		if idx.Unique {
			uniqueIdx[idx.Columns[0]] = true
		}
	}

	for _, c := range info.Columns {
		mapped := MapNativeType(c.NativeType)
		col := schema.Column{
			ID:            ColumnID(info.Name, c.Name),
			Name:          c.Name,
			DataType:      mapped.DataType,
			Length:        firstInt(c.Length, mapped.Length),
			Precision:     firstInt(c.Precision, mapped.Precision),
			Scale:         firstInt(c.Scale, mapped.Scale),
			Values:        c.Values,
			Nullable:      c.Nullable && !pk[c.Name],
			DefaultValue:  c.Default,
			AutoIncrement: c.AutoIncrement || mapped.AutoIncrement,
			PrimaryKey:    pk[c.Name],
			Unique:        c.Unique || uniqueIdx[c.Name] || (pk[c.Name] && len(info.PrimaryKey) == 1),
			Index:         indexed[c.Name] || pk[c.Name],
			Comment:       c.Comment,
		}
		if len(col.Values) == 0 && len(mapped.Values) > 0 {
			col.Values = mapped.Values
		}
		if !col.DataType.UsesLength() {
			col.Length = nil
		}
		if !col.DataType.UsesPrecision() {
			col.Precision, col.Scale = nil, nil
		}
		table.Columns = append(table.Columns, col)
	}

	if len(info.PrimaryKey) > 0 {
		table.Indexes = append(table.Indexes, schema.Index{
			Name:    "PRIMARY",
			Type:    schema.IndexPrimary,
			Columns: columnIDs(info.Name, info.PrimaryKey),
		})
	}
	for _, idx := range info.Indexes {
		if !columnsPresent(info, idx.Columns) {
			continue
		}
		typ := schema.IndexPlain
		if idx.Unique {
			typ = schema.IndexUnique
		}
		table.Indexes = append(table.Indexes, schema.Index{
			Name:    idx.Name,
			Type:    typ,
			Columns: columnIDs(info.Name, idx.Columns),
		})
	}
	return table
}

// ParseRule maps a referential action as reported by the database
func ParseRule(rule string) schema.CascadeAction {
	switch normalizeRule(rule) {
	case "CASCADE":
		return schema.Cascade
	case "SET NULL":
		return schema.SetNull
	case "RESTRICT":
		return schema.Restrict
	}
	return schema.NoAction
}

func isUniqueColumn(info TableInfo, column string) bool {
	if len(info.PrimaryKey) == 1 && info.PrimaryKey[0] == column {
		return true
	}
	for _, c := range info.Columns {
		if c.Name == column && c.Unique {
			return true
		}
	}
	for _, idx := range info.Indexes {
		if idx.Unique && len(idx.Columns) == 1 && idx.Columns[0] == column {
			return true
		}
	}
	return false
}

func hasColumn(info *TableInfo, column string) bool {
	for _, c := range info.Columns {
		if c.Name == column {
			return true
		}
	}
	return false
}

func columnsPresent(info TableInfo, columns []string) bool {
	if len(columns) == 0 {
		return false
	}
	for _, c := range columns {
		if !hasColumn(&info, c) {
			return false
		}
	}
	return true
}

func columnIDs(table string, columns []string) []string {
	ids := make([]string, len(columns))
	for i, c := range columns {
		ids[i] = ColumnID(table, c)
	}
	return ids
}

func firstInt(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
