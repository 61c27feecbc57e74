package sqlgen

import (
	"github.com/lib/pq"
	"github.com/tordrt/dbdesigner/internal/schema"
)

// PostgreSQL rewrites auto increment integer columns to the SERIAL family
type PostgreSQL struct{}

var _ Dialect = PostgreSQL{}

var postgresTypes = map[schema.DataType]string{
	schema.TinyInt:  "SMALLINT",
	schema.LongText: "TEXT",
	schema.DateTime: "TIMESTAMP",
	schema.Bit:      "BOOLEAN",
	schema.Enum:     "VARCHAR",
}

func (PostgreSQL) Name() schema.Engine {
	return schema.EnginePostgreSQL
}

func (PostgreSQL) MapType(t schema.DataType) string {
	return mapWith(postgresTypes, t)
}

func (PostgreSQL) AutoIncrement(colType string) (string, string) {
	switch colType {
	case "INT", "INTEGER":
		return "SERIAL", ""
	case "BIGINT":
		return "BIGSERIAL", ""
	case "SMALLINT":
		return "SMALLSERIAL", ""
	}
	return colType, ""
}

func (PostgreSQL) SupportsComment() bool {
	return false
}

func (PostgreSQL) TableOptions() string {
	return ""
}

func (PostgreSQL) UniqueConstraint(table, column string) string {
	return "CONSTRAINT uk_" + table + "_" + column + " UNIQUE (" + column + ")"
}

func (PostgreSQL) Literal(v string) string {
	return pq.QuoteLiteral(v)
}
