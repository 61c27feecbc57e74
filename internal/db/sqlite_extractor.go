package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// SQLiteExtractor reads a catalog from a SQLite database file
type SQLiteExtractor struct {
	client *SQLiteClient
}

var _ Extractor = (*SQLiteExtractor)(nil)

// NewSQLiteExtractor creates a new SQLite extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractCatalog extracts the specified tables, or every table when tables is empty
func (e *SQLiteExtractor) ExtractCatalog(ctx context.Context, tables []string) (*Catalog, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get table names")
	}

	catalog := &Catalog{}
	for _, tableName := range tableNames {
		table, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to extract table %s", tableName)
		}
		catalog.Tables = append(catalog.Tables, *table)
	}

	return catalog, nil
}

func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

// pragma builds a PRAGMA call with a quoted table or index name
func pragma(name, arg string) string {
	return fmt.Sprintf(`PRAGMA %s("%s")`, name, strings.ReplaceAll(arg, `"`, `""`))
}

func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*TableInfo, error) {
	table := &TableInfo{Name: tableName}

	if err := e.extractColumns(ctx, table); err != nil {
		return nil, errors.Wrap(err, "failed to extract columns")
	}

	fks, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract foreign keys")
	}
	table.ForeignKeys = fks

	if err := e.extractIndexes(ctx, table); err != nil {
		return nil, errors.Wrap(err, "failed to extract indexes")
	}

	return table, nil
}

// extractColumns fills columns and the primary key, which table_info reports together
func (e *SQLiteExtractor) extractColumns(ctx context.Context, table *TableInfo) error {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("table_info", table.Name))
	if err != nil {
		return err
	}
	defer rows.Close()

	type pkColumn struct {
		name  string
		order int
	}
	var pkColumns []pkColumn

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return err
		}

		col := ColumnInfo{
			Name:       name,
			NativeType: colType,
			Nullable:   notNull == 0,
		}
		if defaultValue.Valid {
			v := strings.Trim(defaultValue.String, "'")
			col.Default = &v
		}
		if pk > 0 {
			pkColumns = append(pkColumns, pkColumn{name: name, order: pk})
		}
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	table.PrimaryKey = make([]string, len(pkColumns))
	for _, c := range pkColumns {
		table.PrimaryKey[c.order-1] = c.name
	}

	// An INTEGER PRIMARY KEY is an alias for the rowid
	if len(pkColumns) == 1 {
		for i := range table.Columns {
			if table.Columns[i].Name == pkColumns[0].name && strings.EqualFold(table.Columns[i].NativeType, "integer") {
				table.Columns[i].AutoIncrement = true
			}
		}
	}
	return nil
}

func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]ForeignKeyInfo, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("foreign_key_list", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyInfo
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		fks = append(fks, ForeignKeyInfo{
			Name:         fmt.Sprintf("fk_%s_%s", tableName, targetTable),
			Column:       fromCol,
			TargetTable:  targetTable,
			TargetColumn: toCol.String,
			OnDelete:     onDelete,
			OnUpdate:     onUpdate,
		})
	}
	return fks, rows.Err()
}

// extractIndexes lists named indexes. Indexes SQLite creates for UNIQUE
// constraints mark their column unique instead of being listed.
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, table *TableInfo) error {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("index_list", table.Name))
	if err != nil {
		return err
	}

	type indexEntry struct {
		name   string
		unique bool
		origin string
	}
	var entries []indexEntry
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return err
		}
		entries = append(entries, indexEntry{name: name, unique: unique == 1, origin: origin})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.origin == "pk" {
			continue
		}
		columns, err := e.indexColumns(ctx, entry.name)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			continue
		}
		if entry.origin == "u" || strings.HasPrefix(entry.name, "sqlite_autoindex") {
			if len(columns) == 1 {
				for i := range table.Columns {
					if table.Columns[i].Name == columns[0] {
						table.Columns[i].Unique = true
					}
				}
			}
			continue
		}
		table.Indexes = append(table.Indexes, IndexInfo{
			Name:    entry.name,
			Unique:  entry.unique,
			Columns: columns,
		})
	}
	return nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("index_info", indexName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}
	return columns, rows.Err()
}
