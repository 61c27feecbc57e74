package schema

// TableIndex returns the position of the table with the given id, or -1
func (s Schema) TableIndex(id string) int {
	for i, t := range s.Database.Tables {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// FindTable returns the table with the given id
func (s Schema) FindTable(id string) (Table, bool) {
	if i := s.TableIndex(id); i >= 0 {
		return s.Database.Tables[i], true
	}
	return Table{}, false
}

// FindColumn returns the column with the given id inside the given table
func (s Schema) FindColumn(tableID, columnID string) (Column, bool) {
	t, ok := s.FindTable(tableID)
	if !ok {
		return Column{}, false
	}
	return t.FindColumn(columnID)
}

// RelationshipIndex returns the position of the relationship with the given id, or -1
func (s Schema) RelationshipIndex(id string) int {
	for i, r := range s.Database.Relationships {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// FindRelationship returns the relationship with the given id
func (s Schema) FindRelationship(id string) (Relationship, bool) {
	if i := s.RelationshipIndex(id); i >= 0 {
		return s.Database.Relationships[i], true
	}
	return Relationship{}, false
}

// ColumnIndex returns the position of the column with the given id, or -1
func (t Table) ColumnIndex(id string) int {
	for i, c := range t.Columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// FindColumn returns the column with the given id
func (t Table) FindColumn(id string) (Column, bool) {
	if i := t.ColumnIndex(id); i >= 0 {
		return t.Columns[i], true
	}
	return Column{}, false
}

// FindColumnByName returns the first column with the given name
func (t Table) FindColumnByName(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKeyColumns returns the columns flagged as primary key, in order
func (t Table) PrimaryKeyColumns() []Column {
	var pks []Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pks = append(pks, c)
		}
	}
	return pks
}

// HasTableName reports whether any table is named name
func (s Schema) HasTableName(name string) bool {
	for _, t := range s.Database.Tables {
		if t.Name == name {
			return true
		}
	}
	return false
}

// References reports whether the relationship touches the given table
func (r Relationship) References(tableID string) bool {
	return r.SourceTable == tableID || r.TargetTable == tableID
}

// ReferencesColumn reports whether the relationship uses the given column as either endpoint.
// Column ids are unique across the schema so the owning table is not compared.
func (r Relationship) ReferencesColumn(columnID string) bool {
	return r.SourceColumn == columnID || r.TargetColumn == columnID
}
