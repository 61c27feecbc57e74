package db

import (
	"strconv"
	"strings"

	"github.com/tordrt/dbdesigner/internal/schema"
)

// MappedType is a native column type translated to the designer's types
type MappedType struct {
	DataType      schema.DataType
	Length        *int
	Precision     *int
	Scale         *int
	Values        []string
	AutoIncrement bool
}

var nativeTypes = map[string]schema.DataType{
	"varchar":           schema.Varchar,
	"character varying": schema.Varchar,
	"nvarchar":          schema.Varchar,
	"varchar2":          schema.Varchar,
	"char":              schema.Char,
	"character":         schema.Char,
	"nchar":             schema.Char,
	"bpchar":            schema.Char,
	"text":              schema.Text,
	"tinytext":          schema.Text,
	"mediumtext":        schema.Text,
	"ntext":             schema.Text,
	"citext":            schema.Text,
	"clob":              schema.Text,
	"longtext":          schema.LongText,
	"int":               schema.Int,
	"integer":           schema.Int,
	"int4":              schema.Int,
	"mediumint":         schema.Int,
	"serial":            schema.Int,
	"bigint":            schema.BigInt,
	"int8":              schema.BigInt,
	"bigserial":         schema.BigInt,
	"smallint":          schema.SmallInt,
	"int2":              schema.SmallInt,
	"smallserial":       schema.SmallInt,
	"tinyint":           schema.TinyInt,
	"decimal":           schema.Decimal,
	"numeric":           schema.Decimal,
	"money":             schema.Decimal,
	"float":             schema.Float,
	"real":              schema.Float,
	"float4":            schema.Float,
	"double":            schema.Double,
	"double precision":  schema.Double,
	"float8":            schema.Double,
	"date":              schema.Date,
	"datetime":          schema.DateTime,
	"datetime2":         schema.DateTime,
	"smalldatetime":     schema.DateTime,
	"timestamp":         schema.Timestamp,
	"timestamptz":       schema.Timestamp,
	"datetimeoffset":    schema.Timestamp,
	"time":              schema.Time,
	"timetz":            schema.Time,
	"boolean":           schema.Boolean,
	"bool":              schema.Boolean,
	"bit":               schema.Bit,
	"json":              schema.JSON,
	"jsonb":             schema.JSON,
	"blob":              schema.Blob,
	"tinyblob":          schema.Blob,
	"mediumblob":        schema.Blob,
	"longblob":          schema.Blob,
	"bytea":             schema.Blob,
	"image":             schema.Blob,
	"binary":            schema.Binary,
	"varbinary":         schema.Binary,
	"enum":              schema.Enum,
}

var serialTypes = map[string]bool{
	"serial":      true,
	"bigserial":   true,
	"smallserial": true,
}

// MapNativeType translates a type as the database spells it, e.g.
// "varchar(64)", "int(11) unsigned", "timestamp with time zone" or
// "enum('a','b')". Unknown types fall back to TEXT.
func MapNativeType(native string) MappedType {
	base, args := splitNativeType(native)

	// Arrays and other composite types have no designer equivalent
	if strings.HasSuffix(base, "[]") {
		return MappedType{DataType: schema.Text}
	}
	base = strings.TrimSuffix(base, " with time zone")
	base = strings.TrimSuffix(base, " without time zone")

	dt, ok := nativeTypes[base]
	if !ok {
		return MappedType{DataType: schema.Text}
	}
	mapped := MappedType{DataType: dt, AutoIncrement: serialTypes[base]}

	switch {
	case dt == schema.Enum:
		mapped.Values = parseEnumValues(args)
	case base == "tinyint" && len(args) == 1 && args[0] == "1":
		// MySQL reports BOOLEAN columns as tinyint(1)
		mapped.DataType = schema.Boolean
	case dt.UsesLength():
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				mapped.Length = &n
			}
		}
	case dt.UsesPrecision():
		if len(args) > 0 {
			if p, err := strconv.Atoi(args[0]); err == nil {
				mapped.Precision = &p
				scale := 0
				if len(args) > 1 {
					if s, err := strconv.Atoi(args[1]); err == nil {
						scale = s
					}
				}
				mapped.Scale = &scale
			}
		}
	}
	return mapped
}

// splitNativeType separates "decimal(10,2) unsigned" into "decimal" and
// ["10", "2"]. Arguments keep their quotes so enum values survive.
func splitNativeType(native string) (string, []string) {
	t := strings.TrimSpace(native)
	open := strings.Index(t, "(")
	if open < 0 {
		return normalizeBase(t), nil
	}
	end := strings.LastIndex(t, ")")
	if end < open {
		return normalizeBase(t[:open]), nil
	}
	base := normalizeBase(t[:open] + t[end+1:])
	return base, splitArgs(t[open+1 : end])
}

func normalizeBase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, modifier := range []string{" unsigned", " zerofill", " signed"} {
		s = strings.ReplaceAll(s, modifier, "")
	}
	return strings.Join(strings.Fields(s), " ")
}

// splitArgs splits on commas outside single quotes
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	quoted := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\'':
			// '' inside a quoted value is an escaped quote
			if quoted && i+1 < len(s) && s[i+1] == '\'' {
				current.WriteString("''")
				i++
				continue
			}
			quoted = !quoted
			current.WriteByte(ch)
		case ch == ',' && !quoted:
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" || len(args) > 0 {
		args = append(args, rest)
	}
	return args
}

func parseEnumValues(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	values := make([]string, 0, len(args))
	for _, a := range args {
		if len(a) >= 2 && a[0] == '\'' && a[len(a)-1] == '\'' {
			a = strings.ReplaceAll(a[1:len(a)-1], "''", "'")
		}
		values = append(values, a)
	}
	return values
}

func normalizeRule(rule string) string {
	return strings.Join(strings.Fields(strings.ToUpper(strings.ReplaceAll(rule, "_", " "))), " ")
}
