package editor

import (
	"testing"

	"github.com/shopmonkeyus/go-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tordrt/dbdesigner/internal/schema"
)

func newTestSession(opts ...Option) *Session {
	opts = append([]Option{
		WithIDGenerator(NewSequenceGenerator()),
		WithLogger(logger.NewTestLogger()),
	}, opts...)
	return NewSession(opts...)
}

func TestSessionStartsWithDefaultSchema(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, schema.Default(), s.Schema())
	assert.Equal(t, NoSelection{}, s.Selection())
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
}

func TestScenarioAddTable(t *testing.T) {
	s := newTestSession()
	id := s.AddTable(schema.Position{X: 100, Y: 100})

	db := s.Schema().Database
	assert.Equal(t, "New Database", db.Name)
	assert.Equal(t, schema.EngineMySQL, db.Engine)
	require.Len(t, db.Tables, 1)
	assert.Equal(t, id, db.Tables[0].ID)
	require.Len(t, db.Tables[0].Columns, 1)
	assert.True(t, s.CanUndo(), "the first change must be undoable")
}

func TestScenarioAddRelationship(t *testing.T) {
	s := newTestSession()
	t1 := s.AddTable(schema.Position{})
	t2 := s.AddTable(schema.Position{X: 250})
	c1 := s.Schema().Database.Tables[0].Columns[0].ID
	c2 := s.Schema().Database.Tables[1].Columns[0].ID

	relID, err := s.AddRelationship(Endpoints{t1, c1, t2, c2})
	require.NoError(t, err)

	rels := s.Schema().Database.Relationships
	require.Len(t, rels, 1)
	assert.Equal(t, relID, rels[0].ID)
	assert.Equal(t, schema.OneToMany, rels[0].Type)
	assert.Equal(t, schema.Cascade, rels[0].OnDelete)
	assert.Equal(t, schema.Cascade, rels[0].OnUpdate)
	assert.Equal(t, "fk_table_1_table_2", rels[0].Name)
}

// applyMutations performs a fixed sequence of n recorded changes
func applyMutations(t *testing.T, s *Session) int {
	t.Helper()
	t1 := s.AddTable(schema.Position{})
	t2 := s.AddTable(schema.Position{X: 300})
	colID, err := s.AddColumn(t1)
	require.NoError(t, err)
	require.NoError(t, s.UpdateColumn(t1, colID, func(c *schema.Column) {
		c.Name = "owner_id"
		c.DataType = schema.Int
		c.Length = nil
	}))
	target := s.Schema().Database.Tables[1].Columns[0].ID
	_, err = s.AddRelationship(Endpoints{t1, colID, t2, target})
	require.NoError(t, err)
	require.NoError(t, s.MoveTable(t2, schema.Position{X: 500, Y: 20}))
	s.SetDatabaseName("shop")
	require.NoError(t, s.SetEngine(schema.EnginePostgreSQL))
	require.NoError(t, s.DeleteTable(t2))
	return 9
}

func TestHistoryLinearity(t *testing.T) {
	s := newTestSession()
	start := s.Schema()

	n := applyMutations(t, s)
	for i := 0; i < n; i++ {
		require.True(t, s.Undo(), "undo %d failed", i+1)
	}
	assert.Equal(t, start, s.Schema())
	assert.False(t, s.Undo())
}

func TestRedoAfterUndoRestoresExactValue(t *testing.T) {
	s := newTestSession()
	applyMutations(t, s)
	after := s.Schema()

	require.True(t, s.Undo())
	assert.NotEqual(t, after, s.Schema())
	require.True(t, s.Redo())
	assert.Equal(t, after, s.Schema())
	assert.False(t, s.Redo())
}

func TestBranchDiscard(t *testing.T) {
	s := newTestSession()
	s.AddTable(schema.Position{})
	s.AddTable(schema.Position{})

	require.True(t, s.Undo())
	assert.True(t, s.CanRedo())

	s.SetDatabaseName("branch")
	assert.False(t, s.CanRedo())
	assert.False(t, s.Redo())
	assert.Len(t, s.Schema().Database.Tables, 1)
}

func TestUpdateDatabaseIsOneStep(t *testing.T) {
	s := newTestSession()
	name := "shop"
	engine := schema.EnginePostgreSQL
	require.NoError(t, s.UpdateDatabase(&name, &engine))

	require.True(t, s.Undo())
	assert.Equal(t, schema.DefaultDatabaseName, s.Schema().Database.Name)
	assert.Equal(t, schema.EngineMySQL, s.Schema().Database.Engine)
	assert.False(t, s.CanUndo())
}

func TestUnchangedDatabaseIsNotRecorded(t *testing.T) {
	s := newTestSession()
	s.SetDatabaseName(schema.DefaultDatabaseName)
	require.NoError(t, s.SetEngine(schema.EngineMySQL))
	assert.False(t, s.CanUndo())

	err := s.SetEngine("oracle")
	assert.True(t, schema.IsValidation(err))
	assert.False(t, s.CanUndo())
}

func TestFailedMutationRecordsNothing(t *testing.T) {
	s := newTestSession()
	s.AddTable(schema.Position{})
	before := s.Schema()

	_, err := s.AddColumn("missing")
	require.Error(t, err)
	assert.True(t, schema.IsNotFound(err))
	assert.Equal(t, before, s.Schema())

	// the only recorded change is still the add table
	require.True(t, s.Undo())
	assert.Empty(t, s.Schema().Database.Tables)
	assert.False(t, s.CanUndo())
}

func TestSelection(t *testing.T) {
	s := newTestSession()
	t1 := s.AddTable(schema.Position{})
	c1 := s.Schema().Database.Tables[0].Columns[0].ID

	tests := []struct {
		name       string
		table, col string
		rel        string
		want       Selection
		wantErr    func(error) bool
	}{
		{name: "column", table: t1, col: c1, want: ColumnSelection{TableID: t1, ColumnID: c1}},
		{name: "table", table: t1, want: TableSelection{TableID: t1}},
		{name: "none", want: NoSelection{}},
		{name: "unknown table", table: "nope", wantErr: schema.IsNotFound},
		{name: "column without table", col: c1, wantErr: schema.IsValidation},
		{name: "table and relationship", table: t1, rel: "r", wantErr: schema.IsValidation},
		{name: "column and relationship", table: t1, col: c1, rel: "r", wantErr: schema.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Selection()
			err := s.Select(tt.table, tt.col, tt.rel)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				assert.Equal(t, before, s.Selection())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Selection())
		})
	}
}

func TestSelectionIsNotRecorded(t *testing.T) {
	s := newTestSession()
	t1 := s.AddTable(schema.Position{})
	require.NoError(t, s.Select(t1, "", ""))

	require.True(t, s.Undo())
	assert.Equal(t, NoSelection{}, s.Selection(), "selection of a table that no longer exists is cleared")
	assert.False(t, s.CanUndo())
}

func TestDeleteClearsSelection(t *testing.T) {
	s := newTestSession()
	t1 := s.AddTable(schema.Position{})
	t2 := s.AddTable(schema.Position{})
	c1 := s.Schema().Database.Tables[0].Columns[0].ID

	require.NoError(t, s.Select(t1, c1, ""))
	require.NoError(t, s.DeleteTable(t2))
	assert.Equal(t, ColumnSelection{TableID: t1, ColumnID: c1}, s.Selection())

	require.NoError(t, s.DeleteColumn(t1, c1))
	assert.Equal(t, NoSelection{}, s.Selection())
}

func TestImport(t *testing.T) {
	s := newTestSession()
	t1 := s.AddTable(schema.Position{})
	require.NoError(t, s.Select(t1, "", ""))

	imported := schema.New("imported", schema.EngineSQLServer)
	imported.Database.Tables = []schema.Table{{
		ID:      "t",
		Name:    "things",
		Columns: []schema.Column{{ID: "c", Name: "id", DataType: schema.BigInt, PrimaryKey: true}},
		Indexes: []schema.Index{},
	}}
	require.NoError(t, s.Import(imported))
	assert.Equal(t, imported, s.Schema())
	assert.Equal(t, NoSelection{}, s.Selection())

	require.True(t, s.Undo(), "import is undoable")
	assert.Len(t, s.Schema().Database.Tables, 1)
	assert.Equal(t, t1, s.Schema().Database.Tables[0].ID)
	require.True(t, s.Redo())

	bad := imported.Clone()
	bad.Database.Relationships = []schema.Relationship{{
		ID: "r", Type: schema.OneToMany, SourceTable: "t", SourceColumn: "c",
		TargetTable: "gone", TargetColumn: "c", OnDelete: schema.Cascade, OnUpdate: schema.Cascade,
	}}
	err := s.Import(bad)
	require.Error(t, err)
	assert.True(t, schema.IsValidation(err))
	assert.Equal(t, imported, s.Schema(), "a rejected import leaves the session untouched")
}

func TestHistoryLimit(t *testing.T) {
	s := newTestSession(WithHistoryLimit(3))
	for i := 0; i < 5; i++ {
		s.AddTable(schema.Position{})
	}
	undos := 0
	for s.Undo() {
		undos++
	}
	assert.Equal(t, 2, undos)
	assert.Len(t, s.Schema().Database.Tables, 3)
}
