package formatter

import (
	"fmt"
	"strings"

	"github.com/tordrt/dbdesigner/internal/schema"
)

// relation is a relationship with its ids resolved to names
type relation struct {
	Name         string
	Type         schema.RelationshipType
	SourceTable  string
	SourceColumn string
	TargetTable  string
	TargetColumn string
	OnDelete     schema.CascadeAction
	OnUpdate     schema.CascadeAction
}

// namedIndex is an index with column ids resolved to names
type namedIndex struct {
	Name    string
	Type    schema.IndexType
	Columns []string
}

type tableView struct {
	schema.Table
	PrimaryKey []string
	ForeignKey map[string]bool
	Outgoing   []relation
	Incoming   []relation
	Indexes    []namedIndex
}

// buildViews resolves every table's relationships and indexes. Relationships
// that do not resolve are left out.
func buildViews(s schema.Schema) []tableView {
	views := make([]tableView, len(s.Database.Tables))
	byID := make(map[string]int, len(s.Database.Tables))
	for i, t := range s.Database.Tables {
		byID[t.ID] = i
		v := tableView{Table: t, ForeignKey: map[string]bool{}}
		for _, c := range t.PrimaryKeyColumns() {
			v.PrimaryKey = append(v.PrimaryKey, c.Name)
		}
		for _, idx := range t.Indexes {
			ni := namedIndex{Name: idx.Name, Type: idx.Type}
			for _, cid := range idx.Columns {
				if c, ok := t.FindColumn(cid); ok {
					ni.Columns = append(ni.Columns, c.Name)
				}
			}
			v.Indexes = append(v.Indexes, ni)
		}
		views[i] = v
	}

	for _, r := range s.Database.Relationships {
		src, srcCol, tgt, tgtCol, err := schema.ResolveRelationship(s, r)
		if err != nil {
			continue
		}
		rel := relation{
			Name:         r.Name,
			Type:         r.Type,
			SourceTable:  src.Name,
			SourceColumn: srcCol.Name,
			TargetTable:  tgt.Name,
			TargetColumn: tgtCol.Name,
			OnDelete:     r.OnDelete,
			OnUpdate:     r.OnUpdate,
		}
		si, ti := byID[src.ID], byID[tgt.ID]
		views[si].Outgoing = append(views[si].Outgoing, rel)
		views[si].ForeignKey[srcCol.ID] = true
		views[ti].Incoming = append(views[ti].Incoming, rel)
	}
	return views
}

// typeLabel renders a generic column type with its size, e.g. VARCHAR(255) or ENUM (a|b)
func typeLabel(c schema.Column) string {
	switch {
	case c.DataType.UsesLength() && c.Length != nil && *c.Length > 0:
		return fmt.Sprintf("%s(%d)", c.DataType, *c.Length)
	case c.DataType.UsesPrecision() && c.Precision != nil && *c.Precision > 0 && c.Scale != nil:
		return fmt.Sprintf("%s(%d,%d)", c.DataType, *c.Precision, *c.Scale)
	case c.DataType == schema.Enum && len(c.Values) > 0:
		return fmt.Sprintf("%s (%s)", c.DataType, strings.Join(c.Values, "|"))
	}
	return string(c.DataType)
}

// Cardinality returns the short notation for a relationship type, reading from source to target
func Cardinality(t schema.RelationshipType) string {
	switch t {
	case schema.OneToOne:
		return "1:1"
	case schema.OneToMany:
		return "1:N"
	case schema.ManyToOne:
		return "N:1"
	case schema.ManyToMany:
		return "N:M"
	}
	return string(t)
}

// FormatCardinality describes a relationship in words
func FormatCardinality(t schema.RelationshipType, source, target string) string {
	switch t {
	case schema.OneToOne:
		return fmt.Sprintf("one %s to one %s", source, target)
	case schema.OneToMany:
		return fmt.Sprintf("one %s to many %s", source, target)
	case schema.ManyToOne:
		return fmt.Sprintf("many %s to one %s", source, target)
	case schema.ManyToMany:
		return fmt.Sprintf("many %s to many %s", source, target)
	}
	return string(t)
}

func actionsLabel(r relation) string {
	var parts []string
	if r.OnDelete != "" && r.OnDelete != schema.NoAction {
		parts = append(parts, "ON DELETE "+r.OnDelete.Keyword())
	}
	if r.OnUpdate != "" && r.OnUpdate != schema.NoAction {
		parts = append(parts, "ON UPDATE "+r.OnUpdate.Keyword())
	}
	return strings.Join(parts, ", ")
}
