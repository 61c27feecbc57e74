package editor

import (
	"github.com/tordrt/dbdesigner/internal/schema"
)

// Selection is the editor's transient focus. It is one of NoSelection,
// TableSelection, ColumnSelection or RelationshipSelection.
type Selection interface {
	// Kind names the variant: "none", "table", "column" or "relationship"
	Kind() string
	// Resolves reports whether every id the selection holds exists in s
	Resolves(s schema.Schema) bool
}

type NoSelection struct{}

func (NoSelection) Kind() string { return "none" }

func (NoSelection) Resolves(schema.Schema) bool { return true }

type TableSelection struct {
	TableID string
}

func (TableSelection) Kind() string { return "table" }

func (sel TableSelection) Resolves(s schema.Schema) bool {
	return s.TableIndex(sel.TableID) >= 0
}

type ColumnSelection struct {
	TableID  string
	ColumnID string
}

func (ColumnSelection) Kind() string { return "column" }

func (sel ColumnSelection) Resolves(s schema.Schema) bool {
	_, ok := s.FindColumn(sel.TableID, sel.ColumnID)
	return ok
}

type RelationshipSelection struct {
	RelationshipID string
}

func (RelationshipSelection) Kind() string { return "relationship" }

func (sel RelationshipSelection) Resolves(s schema.Schema) bool {
	return s.RelationshipIndex(sel.RelationshipID) >= 0
}

// Select builds a selection from up to three ids: a table, a table with one
// of its columns, or a relationship. All empty is NoSelection. Any other
// combination is a ValidationError.
func Select(tableID, columnID, relationshipID string) (Selection, error) {
	switch {
	case relationshipID != "" && (tableID != "" || columnID != ""):
		return nil, schema.NewValidation("a relationship cannot be selected together with a table or column")
	case columnID != "" && tableID == "":
		return nil, schema.NewValidation("column %s is selected without its table", columnID)
	case columnID != "":
		return ColumnSelection{TableID: tableID, ColumnID: columnID}, nil
	case tableID != "":
		return TableSelection{TableID: tableID}, nil
	case relationshipID != "":
		return RelationshipSelection{RelationshipID: relationshipID}, nil
	}
	return NoSelection{}, nil
}

// SelectionIDs flattens a selection into the three optional ids the view layer works with
func SelectionIDs(sel Selection) (tableID, columnID, relationshipID string) {
	switch v := sel.(type) {
	case TableSelection:
		return v.TableID, "", ""
	case ColumnSelection:
		return v.TableID, v.ColumnID, ""
	case RelationshipSelection:
		return "", "", v.RelationshipID
	}
	return "", "", ""
}
