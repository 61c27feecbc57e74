package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

const varcharType = "varchar"

// PostgresExtractor reads a catalog from one PostgreSQL schema
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

var _ Extractor = (*PostgresExtractor)(nil)

// NewPostgresExtractor creates a new extractor for the given schema, usually "public"
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// ExtractCatalog extracts the specified tables, or every base table when tables is empty
func (e *PostgresExtractor) ExtractCatalog(ctx context.Context, tables []string) (*Catalog, error) {
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

func (e *PostgresExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema)
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

func (e *PostgresExtractor) extractTable(ctx context.Context, tableName string) (*TableInfo, error) {
	table := &TableInfo{Name: tableName}

	comment, err := e.extractTableComment(ctx, tableName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract table comment")
	}
	table.Comment = comment

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

func (e *PostgresExtractor) extractTableComment(ctx context.Context, tableName string) (string, error) {
	query := `SELECT COALESCE(obj_description(format('%I.%I', $1::text, $2::text)::regclass, 'pg_class'), '')`
	var comment string
	if err := e.client.GetConnection().QueryRow(ctx, query, e.schema, tableName).Scan(&comment); err != nil {
		return "", err
	}
	return comment, nil
}

// normalizePostgresType maps verbose SQL type names to commonly-used PostgreSQL equivalents
func normalizePostgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return varcharType
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "ARRAY":
		// udt_name has underscore prefix for arrays (e.g., "_text" for text[])
		if len(udtName) > 0 && udtName[0] == '_' {
			return fmt.Sprintf("%s[]", normalizeUdtName(udtName[1:]))
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

// normalizeUdtName converts PostgreSQL internal type names to more readable forms
func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	default:
		return udtName
	}
}

func (e *PostgresExtractor) extractColumns(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			c.is_identity,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			CASE WHEN EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.constraint_column_usage ccu
					ON tc.constraint_name = ccu.constraint_name
					AND tc.table_schema = ccu.table_schema
				WHERE tc.table_schema = $1
					AND tc.table_name = $2
					AND tc.constraint_type = 'UNIQUE'
					AND ccu.column_name = c.column_name
					AND (
						SELECT count(*) FROM information_schema.constraint_column_usage x
						WHERE x.constraint_name = tc.constraint_name
							AND x.table_schema = tc.table_schema
					) = 1
			) THEN true ELSE false END AS is_unique,
			COALESCE(col_description(a.attrelid, a.attnum), '') AS comment
		FROM information_schema.columns c
		JOIN pg_attribute a
			ON a.attrelid = format('%I.%I', c.table_schema, c.table_name)::regclass
			AND a.attname = c.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnInfo
	var enumTypes []string

	for rows.Next() {
		var col ColumnInfo
		var dataType, udtName, nullable, identity string
		var defaultVal *string
		var charMaxLength, numericPrecision, numericScale *int

		if err := rows.Scan(&col.Name, &dataType, &udtName, &nullable, &defaultVal, &identity,
			&charMaxLength, &numericPrecision, &numericScale, &col.Unique, &col.Comment); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.NativeType = normalizePostgresType(dataType, udtName, charMaxLength)
		if dataType == "numeric" {
			col.Precision, col.Scale = numericPrecision, numericScale
		}

		switch {
		case identity == "YES":
			col.AutoIncrement = true
		case defaultVal != nil && strings.HasPrefix(*defaultVal, "nextval("):
			// serial columns are an integer with a sequence default
			col.AutoIncrement = true
		default:
			col.Default = cleanPostgresDefault(defaultVal)
		}

		if dataType == "USER-DEFINED" {
			enumTypes = append(enumTypes, udtName)
		}

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(enumTypes) > 0 {
		enumValuesMap, err := e.extractEnumValuesMap(ctx, enumTypes)
		if err != nil {
			return nil, err
		}
		for i := range columns {
			if values, ok := enumValuesMap[columns[i].NativeType]; ok {
				columns[i].NativeType = "enum"
				columns[i].Values = values
			}
		}
	}

	return columns, nil
}

// cleanPostgresDefault strips the type cast PostgreSQL adds to literal defaults,
// e.g. 'draft'::character varying becomes draft
func cleanPostgresDefault(def *string) *string {
	if def == nil {
		return nil
	}
	v := *def
	if i := strings.LastIndex(v, "::"); i > 0 && strings.HasPrefix(v, "'") {
		v = v[:i]
	}
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		v = strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return &v
}

func (e *PostgresExtractor) extractEnumValuesMap(ctx context.Context, enumTypeNames []string) (map[string][]string, error) {
	query := `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE n.nspname = $1 AND t.typname = ANY($2)
		ORDER BY t.typname, e.enumsortorder
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, enumTypeNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var typName, enumLabel string
		if err := rows.Scan(&typName, &enumLabel); err != nil {
			return nil, err
		}
		result[typName] = append(result[typName], enumLabel)
	}

	return result, rows.Err()
}

func (e *PostgresExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
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

func (e *PostgresExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]ForeignKeyInfo, error) {
	query := `
		SELECT
			tc.constraint_name,
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints AS rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
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

func (e *PostgresExtractor) extractIndexes(ctx context.Context, tableName string) ([]IndexInfo, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []IndexInfo
	for rows.Next() {
		var idx IndexInfo
		if err := rows.Scan(&idx.Name, &idx.Unique, &idx.Columns); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}
