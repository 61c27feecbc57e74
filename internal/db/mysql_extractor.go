package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
)

// MySQLExtractor reads a catalog from one MySQL database
type MySQLExtractor struct {
	client     *MySQLClient
	schemaName string
}

var _ Extractor = (*MySQLExtractor)(nil)

// NewMySQLExtractor creates a new MySQL extractor. An empty schema name uses
// the database named in the client's DSN.
func NewMySQLExtractor(client *MySQLClient, schemaName string) *MySQLExtractor {
	if schemaName == "" {
		schemaName = client.Database()
	}
	return &MySQLExtractor{
		client:     client,
		schemaName: schemaName,
	}
}

// ExtractCatalog extracts the specified tables, or every base table when tables is empty
func (e *MySQLExtractor) ExtractCatalog(ctx context.Context, tables []string) (*Catalog, error) {
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

func (e *MySQLExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

func (e *MySQLExtractor) extractTable(ctx context.Context, tableName string) (*TableInfo, error) {
	table := &TableInfo{Name: tableName}

	query := `SELECT table_comment FROM information_schema.tables WHERE table_schema = ? AND table_name = ?`
	if err := e.client.GetDB().QueryRowContext(ctx, query, e.schemaName, tableName).Scan(&table.Comment); err != nil {
		return nil, errors.Wrap(err, "failed to extract table comment")
	}

	columns, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract columns")
	}
	table.Columns = columns

	pk, err := e.extractPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract primary key")
	}
	table.PrimaryKey = pk

	fks, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract foreign keys")
	}
	table.ForeignKeys = fks

	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract indexes")
	}
	table.Indexes = indexes

	return table, nil
}

func (e *MySQLExtractor) extractColumns(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	// column_type carries the size and enum values, e.g. enum('a','b')
	query := `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default,
			c.extra,
			c.column_comment,
			CASE WHEN EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
					AND tc.table_name = kcu.table_name
				WHERE tc.table_schema = ?
					AND tc.table_name = ?
					AND tc.constraint_type = 'UNIQUE'
					AND kcu.column_name = c.column_name
					AND (
						SELECT COUNT(*) FROM information_schema.key_column_usage x
						WHERE x.constraint_name = tc.constraint_name
							AND x.table_schema = tc.table_schema
							AND x.table_name = tc.table_name
					) = 1
			) THEN true ELSE false END AS is_unique
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var nullable, extra string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &col.NativeType, &nullable, &defaultVal, &extra, &col.Comment, &col.Unique); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (e *MySQLExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		pk = append(pk, colName)
	}
	return pk, rows.Err()
}

func (e *MySQLExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]ForeignKeyInfo, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = kcu.table_schema
			AND rc.constraint_name = kcu.constraint_name
			AND rc.table_name = kcu.table_name
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyInfo
	for rows.Next() {
		var fk ForeignKeyInfo
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.TargetTable, &fk.TargetColumn, &fk.OnDelete, &fk.OnUpdate); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func (e *MySQLExtractor) extractIndexes(ctx context.Context, tableName string) ([]IndexInfo, error) {
	query := `
		SELECT
			s.index_name,
			s.non_unique = 0 AS is_unique,
			GROUP_CONCAT(s.column_name ORDER BY s.seq_in_index) AS column_names
		FROM information_schema.statistics s
		WHERE s.table_schema = ?
			AND s.table_name = ?
			AND s.index_name != 'PRIMARY'
		GROUP BY s.index_name, s.non_unique
		ORDER BY s.index_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []IndexInfo
	for rows.Next() {
		var idx IndexInfo
		var isUnique int
		var columnNames string
		if err := rows.Scan(&idx.Name, &isUnique, &columnNames); err != nil {
			return nil, err
		}
		idx.Unique = isUnique == 1
		idx.Columns = strings.Split(columnNames, ",")
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}
