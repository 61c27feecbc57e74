package db

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tordrt/dbdesigner/internal/schema"
	"github.com/tordrt/dbdesigner/internal/sqlgen"
)

func TestMapNativeType(t *testing.T) {
	tests := []struct {
		native    string
		expected  schema.DataType
		length    *int
		precision *int
		scale     *int
		auto      bool
	}{
		{"varchar(64)", schema.Varchar, schema.IntPtr(64), nil, nil, false},
		{"character varying", schema.Varchar, nil, nil, nil, false},
		{"VARCHAR(255)", schema.Varchar, schema.IntPtr(255), nil, nil, false},
		{"char(2)", schema.Char, schema.IntPtr(2), nil, nil, false},
		{"int(11) unsigned", schema.Int, nil, nil, nil, false},
		{"integer", schema.Int, nil, nil, nil, false},
		{"serial", schema.Int, nil, nil, nil, true},
		{"bigserial", schema.BigInt, nil, nil, nil, true},
		{"tinyint(1)", schema.Boolean, nil, nil, nil, false},
		{"tinyint(4)", schema.TinyInt, nil, nil, nil, false},
		{"decimal(10,2)", schema.Decimal, nil, schema.IntPtr(10), schema.IntPtr(2), false},
		{"numeric(8)", schema.Decimal, nil, schema.IntPtr(8), schema.IntPtr(0), false},
		{"timestamp with time zone", schema.Timestamp, nil, nil, nil, false},
		{"timestamptz", schema.Timestamp, nil, nil, nil, false},
		{"double precision", schema.Double, nil, nil, nil, false},
		{"jsonb", schema.JSON, nil, nil, nil, false},
		{"bytea", schema.Blob, nil, nil, nil, false},
		{"longtext", schema.LongText, nil, nil, nil, false},
		{"text[]", schema.Text, nil, nil, nil, false},
		{"geometry", schema.Text, nil, nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			mapped := MapNativeType(tt.native)
			if mapped.DataType != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, mapped.DataType)
			}
			assert.Equal(t, tt.length, mapped.Length)
			assert.Equal(t, tt.precision, mapped.Precision)
			assert.Equal(t, tt.scale, mapped.Scale)
			assert.Equal(t, tt.auto, mapped.AutoIncrement)
		})
	}
}

func TestMapNativeTypeEnum(t *testing.T) {
	mapped := MapNativeType("enum('draft','it''s live','a,b')")
	assert.Equal(t, schema.Enum, mapped.DataType)
	assert.Equal(t, []string{"draft", "it's live", "a,b"}, mapped.Values)
}

func TestParseRule(t *testing.T) {
	tests := map[string]schema.CascadeAction{
		"CASCADE":     schema.Cascade,
		"SET NULL":    schema.SetNull,
		"set_null":    schema.SetNull,
		"RESTRICT":    schema.Restrict,
		"NO ACTION":   schema.NoAction,
		"SET DEFAULT": schema.NoAction,
		"":            schema.NoAction,
	}
	for rule, expected := range tests {
		if got := ParseRule(rule); got != expected {
			t.Errorf("ParseRule(%q): expected %s, got %s", rule, expected, got)
		}
	}
}

func shopCatalog() *Catalog {
	return &Catalog{Tables: []TableInfo{
		{
			Name:    "users",
			Comment: "accounts",
			Columns: []ColumnInfo{
				{Name: "id", NativeType: "integer", AutoIncrement: true},
				{Name: "email", NativeType: "varchar(255)", Unique: true},
				{Name: "status", NativeType: "enum", Values: []string{"active", "banned"}, Default: schema.StringPtr("active")},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "profiles",
			Columns: []ColumnInfo{
				{Name: "id", NativeType: "integer"},
				{Name: "user_id", NativeType: "integer"},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []ForeignKeyInfo{
				{Name: "profiles_user_fk", Column: "user_id", TargetTable: "users", TargetColumn: "id", OnDelete: "CASCADE", OnUpdate: "NO ACTION"},
			},
			Indexes: []IndexInfo{{Name: "profiles_user_key", Unique: true, Columns: []string{"user_id"}}},
		},
		{
			Name: "orders",
			Columns: []ColumnInfo{
				{Name: "id", NativeType: "bigint"},
				{Name: "user_id", NativeType: "integer", Nullable: true},
				{Name: "total", NativeType: "numeric", Precision: schema.IntPtr(10), Scale: schema.IntPtr(2)},
				{Name: "placed_at", NativeType: "timestamp"},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []ForeignKeyInfo{
				{Column: "user_id", TargetTable: "users", OnDelete: "SET NULL"},
				{Column: "coupon_id", TargetTable: "coupons", TargetColumn: "id"},
			},
			Indexes: []IndexInfo{
				{Name: "orders_user_idx", Columns: []string{"user_id"}},
				{Name: "orders_user_placed_idx", Columns: []string{"user_id", "placed_at"}},
			},
		},
	}}
}

func TestBuildSchema(t *testing.T) {
	s, err := BuildSchema(shopCatalog(), "shop", schema.EnginePostgreSQL)
	require.NoError(t, err)

	assert.Equal(t, "shop", s.Database.Name)
	assert.Equal(t, schema.EnginePostgreSQL, s.Database.Engine)
	require.Len(t, s.Database.Tables, 3)

	users, ok := s.FindTable("table_users")
	require.True(t, ok)
	assert.Equal(t, "accounts", users.Description)
	assert.Equal(t, schema.Position{X: 40, Y: 40}, users.Position)

	id, ok := users.FindColumn("col_users_id")
	require.True(t, ok)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)
	assert.True(t, id.Unique)
	assert.False(t, id.Nullable)

	email, _ := users.FindColumnByName("email")
	assert.Equal(t, schema.Varchar, email.DataType)
	assert.Equal(t, schema.IntPtr(255), email.Length)
	assert.True(t, email.Unique)

	status, _ := users.FindColumnByName("status")
	assert.Equal(t, schema.Enum, status.DataType)
	assert.Equal(t, []string{"active", "banned"}, status.Values)
	assert.Equal(t, "active", *status.DefaultValue)

	orders, ok := s.FindTable("table_orders")
	require.True(t, ok)
	assert.Equal(t, schema.Position{X: 680, Y: 40}, orders.Position)
	total, _ := orders.FindColumnByName("total")
	assert.Equal(t, schema.Decimal, total.DataType)
	assert.Equal(t, schema.IntPtr(10), total.Precision)
	assert.Equal(t, schema.IntPtr(2), total.Scale)
	userID, _ := orders.FindColumnByName("user_id")
	assert.True(t, userID.Index, "single-column index marks the column")
	assert.True(t, userID.Nullable)

	require.Len(t, orders.Indexes, 3)
	assert.Equal(t, schema.Index{Name: "PRIMARY", Type: schema.IndexPrimary, Columns: []string{"col_orders_id"}}, orders.Indexes[0])
	assert.Equal(t, []string{"col_orders_user_id", "col_orders_placed_at"}, orders.Indexes[2].Columns)

	// coupons is not in the catalog, so only two relationships survive
	require.Len(t, s.Database.Relationships, 2)
	profileRel := s.Database.Relationships[0]
	assert.Equal(t, "rel_1", profileRel.ID)
	assert.Equal(t, "profiles_user_fk", profileRel.Name)
	assert.Equal(t, schema.OneToOne, profileRel.Type, "unique foreign key column")
	assert.Equal(t, schema.Cascade, profileRel.OnDelete)
	assert.Equal(t, schema.NoAction, profileRel.OnUpdate)

	orderRel := s.Database.Relationships[1]
	assert.Equal(t, "fk_orders_users", orderRel.Name)
	assert.Equal(t, schema.OneToMany, orderRel.Type)
	assert.Equal(t, "col_users_id", orderRel.TargetColumn, "missing target column resolves to the primary key")
	assert.Equal(t, schema.SetNull, orderRel.OnDelete)

	assert.NoError(t, schema.Validate(s))
}

func TestBuildSchemaDeterministic(t *testing.T) {
	a, err := BuildSchema(shopCatalog(), "shop", schema.EngineMySQL)
	require.NoError(t, err)
	b, err := BuildSchema(shopCatalog(), "shop", schema.EngineMySQL)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildSchemaRejectsUnknownEngine(t *testing.T) {
	_, err := BuildSchema(shopCatalog(), "shop", schema.Engine("oracle"))
	assert.True(t, schema.IsValidation(err))
}

type stubExtractor struct {
	catalog *Catalog
	err     error
	tables  []string
}

func (s *stubExtractor) ExtractCatalog(ctx context.Context, tables []string) (*Catalog, error) {
	s.tables = tables
	return s.catalog, s.err
}

func TestIntrospect(t *testing.T) {
	ex := &stubExtractor{catalog: shopCatalog()}
	s, err := Introspect(context.Background(), ex, []string{"users"}, "shop", schema.EngineMySQL)
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, ex.tables)
	assert.Len(t, s.Database.Tables, 3)

	ex = &stubExtractor{err: errors.New("connection reset")}
	_, err = Introspect(context.Background(), ex, nil, "shop", schema.EngineMySQL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to extract catalog")
}

func TestSplitStatements(t *testing.T) {
	ddl := "-- Database: shop\n-- Engine: MYSQL\n\n" +
		"CREATE TABLE a (\n  note VARCHAR(10) DEFAULT 'x; y'\n);\n\n" +
		"CREATE TABLE b (\n  s VARCHAR(10) DEFAULT 'it\\'s -- fine'\n);\n" +
		"ALTER TABLE b ADD CONSTRAINT fk_b_a FOREIGN KEY (s) REFERENCES a(note);\n" +
		"CREATE INDEX idx_b_s ON b (s);"

	statements := SplitStatements(ddl, schema.EngineMySQL)
	require.Len(t, statements, 4)
	assert.Equal(t, "CREATE TABLE a (\n  note VARCHAR(10) DEFAULT 'x; y'\n)", statements[0])
	assert.Contains(t, statements[1], "'it\\'s -- fine'")
	assert.Equal(t, "CREATE INDEX idx_b_s ON b (s)", statements[3])

	assert.Empty(t, SplitStatements("-- only a comment\n\n;", schema.EngineMySQL))
}

func TestSplitStatementsBackslashes(t *testing.T) {
	tests := []struct {
		name   string
		engine schema.Engine
		ddl    string
		want   int
	}{
		{"sqlserver trailing backslash", schema.EngineSQLServer, "CREATE TABLE a (p VARCHAR(10) DEFAULT 'C:\\');\nCREATE TABLE b (id INT);", 2},
		{"sqlserver doubled quote", schema.EngineSQLServer, "CREATE TABLE a (p VARCHAR(10) DEFAULT 'it''s; ok');\nCREATE TABLE b (id INT);", 2},
		{"postgresql plain string", schema.EnginePostgreSQL, "CREATE TABLE a (p TEXT DEFAULT 'C:\\');\nCREATE TABLE b (id INT);", 2},
		{"postgresql escape string", schema.EnginePostgreSQL, "CREATE TABLE a (p TEXT DEFAULT  E'C:\\\\');\nCREATE TABLE b (id INT);", 2},
		{"postgresql comment with backslash", schema.EnginePostgreSQL, "CREATE TABLE a (p TEXT DEFAULT 'x');\nCOMMENT ON TABLE a IS 'C:\\';\nSELECT 1;", 3},
		{"mysql escaped backslash", schema.EngineMySQL, "CREATE TABLE a (p VARCHAR(10) DEFAULT 'C:\\\\');\nCREATE TABLE b (id INT);", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitStatements(tt.ddl, tt.engine)
			if len(got) != tt.want {
				t.Errorf("Expected %d statements, got %d: %q", tt.want, len(got), got)
			}
		})
	}
}

func TestSplitGeneratedSQLServer(t *testing.T) {
	s, err := BuildSchema(shopCatalog(), "shop", schema.EngineSQLServer)
	require.NoError(t, err)
	path := `C:\`
	s.Database.Tables[0].Columns[1].DefaultValue = &path

	ddl := sqlgen.Generate(s, sqlgen.WithDialect(sqlgen.SQLServer{}))
	require.Contains(t, ddl, `DEFAULT 'C:\'`)
	exec := &recordingExecutor{}
	n, err := Apply(context.Background(), nil, exec, schema.EngineSQLServer, ddl)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

type recordingExecutor struct {
	statements []string
	failOn     int
}

func (r *recordingExecutor) Exec(ctx context.Context, statement string) error {
	r.statements = append(r.statements, statement)
	if r.failOn > 0 && len(r.statements) == r.failOn {
		return errors.New("syntax error")
	}
	return nil
}

func TestApply(t *testing.T) {
	s, err := BuildSchema(shopCatalog(), "shop", schema.EngineMySQL)
	require.NoError(t, err)
	ddl := sqlgen.Generate(s)

	exec := &recordingExecutor{}
	n, err := Apply(context.Background(), logger.NewTestLogger(), exec, schema.EngineMySQL, ddl)
	require.NoError(t, err)
	assert.Equal(t, 6, n, "three tables, one index and two foreign keys")
	assert.Len(t, exec.statements, n)
	assert.Contains(t, exec.statements[0], "CREATE TABLE users")

	exec = &recordingExecutor{failOn: 2}
	n, err = Apply(context.Background(), nil, exec, schema.EngineMySQL, ddl)
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "failed to execute statement 2: CREATE TABLE profiles")
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url      string
		kind     string
		connStr  string
		hasError bool
	}{
		{"postgres://u:p@localhost/shop", "postgres", "postgres://u:p@localhost/shop", false},
		{"postgresql://localhost/shop", "postgres", "postgresql://localhost/shop", false},
		{"mysql://u:p@tcp(localhost:3306)/shop", "mysql", "u:p@tcp(localhost:3306)/shop", false},
		{"sqlite://data/test.db", "sqlite", "data/test.db", false},
		{"sqlserver://sa:pw@localhost:1433?database=shop", "sqlserver", "sqlserver://sa:pw@localhost:1433?database=shop", false},
		{"oracle://localhost", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		kind, connStr, err := ParseURL(tt.url)
		if tt.hasError {
			assert.Error(t, err, tt.url)
			continue
		}
		require.NoError(t, err)
		if kind != tt.kind {
			t.Errorf("Expected kind %s, got %s", tt.kind, kind)
		}
		assert.Equal(t, tt.connStr, connStr)
	}
}

func TestConnectionWithoutExtractor(t *testing.T) {
	conn := &Connection{Kind: "sqlserver", Engine: schema.EngineSQLServer}
	_, err := conn.Introspect(context.Background(), nil, "shop")
	assert.EqualError(t, err, "introspection is not supported for sqlserver")
	assert.NoError(t, conn.Close())
}
