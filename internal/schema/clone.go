package schema

// Clone returns a deep copy of the schema. Nil slices stay nil so clones compare equal.
func (s Schema) Clone() Schema {
	out := s
	if s.Database.Tables != nil {
		out.Database.Tables = make([]Table, len(s.Database.Tables))
		for i, t := range s.Database.Tables {
			out.Database.Tables[i] = t.Clone()
		}
	}
	if s.Database.Relationships != nil {
		out.Database.Relationships = make([]Relationship, len(s.Database.Relationships))
		copy(out.Database.Relationships, s.Database.Relationships)
	}
	return out
}

// Clone returns a deep copy of the table
func (t Table) Clone() Table {
	out := t
	if t.Columns != nil {
		out.Columns = make([]Column, len(t.Columns))
		for i, c := range t.Columns {
			out.Columns[i] = c.Clone()
		}
	}
	if t.Indexes != nil {
		out.Indexes = make([]Index, len(t.Indexes))
		for i, idx := range t.Indexes {
			out.Indexes[i] = idx
			if idx.Columns != nil {
				out.Indexes[i].Columns = append([]string{}, idx.Columns...)
			}
		}
	}
	return out
}

// Clone returns a deep copy of the column
func (c Column) Clone() Column {
	out := c
	out.Length = copyInt(c.Length)
	out.Precision = copyInt(c.Precision)
	out.Scale = copyInt(c.Scale)
	if c.DefaultValue != nil {
		out.DefaultValue = StringPtr(*c.DefaultValue)
	}
	if c.Values != nil {
		out.Values = append([]string{}, c.Values...)
	}
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return IntPtr(*v)
}
