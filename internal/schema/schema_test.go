package schema

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchema() Schema {
	s := New("shop", EngineMySQL)
	s.Database.Tables = []Table{
		{
			ID:   "t_users",
			Name: "users",
			Columns: []Column{
				{ID: "c_users_id", Name: "id", DataType: Int, PrimaryKey: true, AutoIncrement: true},
				{ID: "c_users_email", Name: "email", DataType: Varchar, Length: IntPtr(255), Unique: true},
			},
			Indexes: []Index{},
		},
		{
			ID:   "t_orders",
			Name: "orders",
			Columns: []Column{
				{ID: "c_orders_id", Name: "id", DataType: Int, PrimaryKey: true},
				{ID: "c_orders_user", Name: "user_id", DataType: Int},
			},
			Indexes: []Index{{Name: "idx_user", Type: IndexPlain, Columns: []string{"c_orders_user"}}},
		},
	}
	s.Database.Relationships = []Relationship{
		{
			ID:           "r_1",
			Name:         "fk_orders_users",
			Type:         OneToMany,
			SourceTable:  "t_orders",
			SourceColumn: "c_orders_user",
			TargetTable:  "t_users",
			TargetColumn: "c_users_id",
			OnDelete:     Cascade,
			OnUpdate:     NoAction,
		},
	}
	return s
}

func TestDataTypePredicates(t *testing.T) {
	tests := []struct {
		dataType  DataType
		editor    bool
		integer   bool
		length    bool
		precision bool
		str       bool
	}{
		{Varchar, true, false, true, false, true},
		{Binary, true, false, true, false, false},
		{Decimal, true, false, false, true, false},
		{TinyInt, true, true, false, false, false},
		{LongText, true, false, false, false, true},
		{Enum, false, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.dataType), func(t *testing.T) {
			assert.True(t, tt.dataType.IsKnown())
			assert.Equal(t, tt.editor, tt.dataType.IsEditorType())
			assert.Equal(t, tt.integer, tt.dataType.IsIntegerFamily())
			assert.Equal(t, tt.length, tt.dataType.UsesLength())
			assert.Equal(t, tt.precision, tt.dataType.UsesPrecision())
			assert.Equal(t, tt.str, tt.dataType.IsString())
		})
	}

	assert.False(t, DataType("GEOMETRY").IsKnown())
	assert.Len(t, EditorTypes(), 20)
}

func TestCascadeKeyword(t *testing.T) {
	assert.Equal(t, "SET NULL", SetNull.Keyword())
	assert.Equal(t, "NO ACTION", NoAction.Keyword())
	assert.Equal(t, "CASCADE", Cascade.Keyword())
	assert.Equal(t, "RESTRICT", Restrict.Keyword())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Schema)
		wantErr  bool
		contains string
	}{
		{
			name:   "valid schema",
			mutate: func(s *Schema) {},
		},
		{
			name:     "unknown engine",
			mutate:   func(s *Schema) { s.Database.Engine = "oracle" },
			wantErr:  true,
			contains: `unknown engine "oracle"`,
		},
		{
			name: "duplicate column id across tables",
			mutate: func(s *Schema) {
				s.Database.Tables[1].Columns[0].ID = "c_users_id"
			},
			wantErr:  true,
			contains: `duplicate id "c_users_id"`,
		},
		{
			name: "dangling target column",
			mutate: func(s *Schema) {
				s.Database.Relationships[0].TargetColumn = "missing"
			},
			wantErr:  true,
			contains: `references missing column "missing"`,
		},
		{
			name: "unknown data type",
			mutate: func(s *Schema) {
				s.Database.Tables[0].Columns[1].DataType = "GEOMETRY"
			},
			wantErr:  true,
			contains: `unknown data type "GEOMETRY"`,
		},
		{
			name: "index on missing column",
			mutate: func(s *Schema) {
				s.Database.Tables[1].Indexes[0].Columns = []string{"nope"}
			},
			wantErr:  true,
			contains: `index "idx_user" of table "orders" references missing column "nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSchema()
			tt.mutate(&s)
			err := Validate(s)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err), "Expected a validation error, got %T", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCheckReferences(t *testing.T) {
	s := sampleSchema()
	assert.Empty(t, CheckReferences(s))

	s.Database.Relationships = append(s.Database.Relationships, Relationship{
		ID:           "r_2",
		SourceTable:  "t_gone",
		SourceColumn: "x",
		TargetTable:  "t_users",
		TargetColumn: "c_users_id",
	})
	errs := CheckReferences(s)
	require.Len(t, errs, 1)
	assert.Equal(t, "r_2", errs[0].RelationshipID)
	assert.Equal(t, KindTable, errs[0].Kind)
	assert.True(t, errors.Is(errs[0], ErrDanglingReference))

	src, srcCol, tgt, tgtCol, err := ResolveRelationship(s, s.Database.Relationships[0])
	require.NoError(t, err)
	assert.Equal(t, "orders", src.Name)
	assert.Equal(t, "user_id", srcCol.Name)
	assert.Equal(t, "users", tgt.Name)
	assert.Equal(t, "id", tgtCol.Name)
}

func TestCloneIsDeep(t *testing.T) {
	s := sampleSchema()
	c := s.Clone()
	require.Equal(t, s, c)

	c.Database.Tables[0].Columns[1].Name = "mail"
	*c.Database.Tables[0].Columns[1].Length = 100
	c.Database.Tables[1].Indexes[0].Columns[0] = "changed"
	c.Database.Relationships[0].Name = "renamed"

	assert.Equal(t, "email", s.Database.Tables[0].Columns[1].Name)
	assert.Equal(t, 255, *s.Database.Tables[0].Columns[1].Length)
	assert.Equal(t, "c_orders_user", s.Database.Tables[1].Indexes[0].Columns[0])
	assert.Equal(t, "fk_orders_users", s.Database.Relationships[0].Name)
}

func TestColumnUnmarshalDefaultAlias(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *string
		dataTyp DataType
	}{
		{"defaultValue", `{"id":"c","name":"n","dataType":"INT","defaultValue":"0"}`, StringPtr("0"), Int},
		{"default alias", `{"id":"c","name":"n","dataType":"VARCHAR","default":"guest"}`, StringPtr("guest"), Varchar},
		{"numeric alias", `{"id":"c","name":"n","dataType":"INT","default":42}`, StringPtr("42"), Int},
		{"defaultValue wins", `{"id":"c","name":"n","dataType":"INT","defaultValue":"1","default":"2"}`, StringPtr("1"), Int},
		{"absent", `{"id":"c","name":"n","dataType":"TEXT"}`, nil, Text},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Column
			require.NoError(t, json.Unmarshal([]byte(tt.input), &c))
			assert.Equal(t, tt.want, c.DefaultValue)
			assert.Equal(t, tt.dataTyp, c.DataType)
			assert.Equal(t, "n", c.Name)
		})
	}
}

func TestColumnUnmarshalMerges(t *testing.T) {
	c := Column{ID: "c", Name: "email", DataType: Varchar, Length: IntPtr(255), DefaultValue: StringPtr("x")}
	require.NoError(t, json.Unmarshal([]byte(`{"nullable":true}`), &c))
	assert.Equal(t, "email", c.Name)
	assert.True(t, c.Nullable)
	assert.Equal(t, StringPtr("x"), c.DefaultValue)

	require.NoError(t, json.Unmarshal([]byte(`{"defaultValue":null}`), &c))
	assert.Nil(t, c.DefaultValue)
}

func TestErrorsMatchSentinels(t *testing.T) {
	nf := errors.Wrap(NewNotFound(KindTable, "t1"), "failed to update table")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsConflict(nf))

	var target *NotFoundError
	require.True(t, errors.As(nf, &target))
	assert.Equal(t, "t1", target.ID)

	conflict := &ConflictError{Kind: KindColumn, Name: "email"}
	assert.True(t, IsConflict(conflict))
	assert.Equal(t, `column name "email" already in use`, conflict.Error())

	assert.True(t, IsValidation(NewValidation("bad %s", "thing")))
}
