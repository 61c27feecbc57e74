package sqlgen

import (
	"strings"

	"github.com/tordrt/dbdesigner/internal/schema"
)

// SQLServer emits T-SQL with IDENTITY columns
type SQLServer struct{}

var _ Dialect = SQLServer{}

var sqlserverTypes = map[schema.DataType]string{
	schema.LongText: "NVARCHAR(MAX)",
	schema.Text:     "NVARCHAR(MAX)",
	schema.DateTime: "DATETIME2",
	schema.Enum:     "VARCHAR",
}

func (SQLServer) Name() schema.Engine {
	return schema.EngineSQLServer
}

func (SQLServer) MapType(t schema.DataType) string {
	return mapWith(sqlserverTypes, t)
}

func (SQLServer) AutoIncrement(colType string) (string, string) {
	return colType, "IDENTITY(1,1)"
}

func (SQLServer) SupportsComment() bool {
	return false
}

func (SQLServer) TableOptions() string {
	return ""
}

func (SQLServer) UniqueConstraint(table, column string) string {
	return "CONSTRAINT uk_" + table + "_" + column + " UNIQUE (" + column + ")"
}

func (SQLServer) Literal(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
