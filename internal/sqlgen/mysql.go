package sqlgen

import (
	"strings"

	"github.com/tordrt/dbdesigner/internal/schema"
)

// MySQL emits InnoDB DDL with AUTO_INCREMENT and inline comments
type MySQL struct{}

var _ Dialect = MySQL{}

func (MySQL) Name() schema.Engine {
	return schema.EngineMySQL
}

func (MySQL) MapType(t schema.DataType) string {
	return string(t)
}

func (MySQL) AutoIncrement(colType string) (string, string) {
	return colType, "AUTO_INCREMENT"
}

func (MySQL) SupportsComment() bool {
	return true
}

func (MySQL) TableOptions() string {
	return " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci"
}

func (MySQL) UniqueConstraint(table, column string) string {
	return "UNIQUE KEY uk_" + table + "_" + column + " (" + column + ")"
}

var mysqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `''`)

func (MySQL) Literal(v string) string {
	return "'" + mysqlEscaper.Replace(v) + "'"
}
