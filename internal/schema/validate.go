package schema

import (
	"fmt"
)

// CheckReferences returns one error per relationship endpoint that does not resolve.
// Relationships are checked in order and a relationship contributes at most one error.
func CheckReferences(s Schema) []*DanglingReferenceError {
	var errs []*DanglingReferenceError
	for _, r := range s.Database.Relationships {
		if err := checkRelationship(s, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ResolveRelationship returns the tables and columns a relationship points at
func ResolveRelationship(s Schema, r Relationship) (source Table, sourceCol Column, target Table, targetCol Column, err error) {
	if derr := checkRelationship(s, r); derr != nil {
		return Table{}, Column{}, Table{}, Column{}, derr
	}
	source, _ = s.FindTable(r.SourceTable)
	target, _ = s.FindTable(r.TargetTable)
	sourceCol, _ = source.FindColumn(r.SourceColumn)
	targetCol, _ = target.FindColumn(r.TargetColumn)
	return source, sourceCol, target, targetCol, nil
}

func checkRelationship(s Schema, r Relationship) *DanglingReferenceError {
	src, ok := s.FindTable(r.SourceTable)
	if !ok {
		return &DanglingReferenceError{RelationshipID: r.ID, Kind: KindTable, ID: r.SourceTable}
	}
	tgt, ok := s.FindTable(r.TargetTable)
	if !ok {
		return &DanglingReferenceError{RelationshipID: r.ID, Kind: KindTable, ID: r.TargetTable}
	}
	if _, ok := src.FindColumn(r.SourceColumn); !ok {
		return &DanglingReferenceError{RelationshipID: r.ID, Kind: KindColumn, ID: r.SourceColumn}
	}
	if _, ok := tgt.FindColumn(r.TargetColumn); !ok {
		return &DanglingReferenceError{RelationshipID: r.ID, Kind: KindColumn, ID: r.TargetColumn}
	}
	return nil
}

// Validate checks the whole schema and returns a *ValidationError listing every
// problem, or nil when the schema is consistent.
func Validate(s Schema) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !s.Database.Engine.IsKnown() {
		add("unknown engine %q", s.Database.Engine)
	}

	ids := make(map[string]string)
	claim := func(id string, what string) {
		if id == "" {
			add("%s has an empty id", what)
			return
		}
		if prev, ok := ids[id]; ok {
			add("duplicate id %q used by %s and %s", id, prev, what)
			return
		}
		ids[id] = what
	}

	for ti, t := range s.Database.Tables {
		claim(t.ID, fmt.Sprintf("table %q", t.Name))
		if t.Name == "" {
			add("table #%d has an empty name", ti+1)
		}
		for ci, c := range t.Columns {
			claim(c.ID, fmt.Sprintf("column %s.%s", t.Name, c.Name))
			if c.Name == "" {
				add("column #%d of table %q has an empty name", ci+1, t.Name)
			}
			if !c.DataType.IsKnown() {
				add("column %s.%s has unknown data type %q", t.Name, c.Name, c.DataType)
			}
		}
		for _, idx := range t.Indexes {
			switch idx.Type {
			case IndexPlain, IndexUnique, IndexPrimary:
			default:
				add("index %q of table %q has unknown type %q", idx.Name, t.Name, idx.Type)
			}
			for _, cid := range idx.Columns {
				if _, ok := t.FindColumn(cid); !ok {
					add("index %q of table %q references missing column %q", idx.Name, t.Name, cid)
				}
			}
		}
	}

	for _, r := range s.Database.Relationships {
		claim(r.ID, fmt.Sprintf("relationship %q", r.Name))
		if !r.Type.IsKnown() {
			add("relationship %q has unknown type %q", r.Name, r.Type)
		}
		if !r.OnDelete.IsKnown() {
			add("relationship %q has unknown onDelete action %q", r.Name, r.OnDelete)
		}
		if !r.OnUpdate.IsKnown() {
			add("relationship %q has unknown onUpdate action %q", r.Name, r.OnUpdate)
		}
	}
	for _, derr := range CheckReferences(s) {
		add("%s", derr.Error())
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
