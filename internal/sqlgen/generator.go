// Package sqlgen translates a schema into dialect specific DDL.
//
// Output is deterministic apart from the "Generated at" header line, whose
// clock can be pinned with WithClock.
package sqlgen

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tordrt/dbdesigner/internal/schema"
)

// Option configures Generate
type Option func(*config)

type config struct {
	now     func() time.Time
	dialect Dialect
	onSkip  func(*schema.DanglingReferenceError)
}

// WithClock sets the clock used for the header timestamp
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithDialect overrides the dialect derived from the schema's engine
func WithDialect(d Dialect) Option {
	return func(c *config) {
		c.dialect = d
	}
}

// WithSkipHandler is called for every relationship left out because an endpoint does not resolve
func WithSkipHandler(fn func(*schema.DanglingReferenceError)) Option {
	return func(c *config) {
		c.onSkip = fn
	}
}

// lengthTypes take a (n) suffix when the column has a length
var lengthTypes = map[string]bool{
	"VARCHAR":  true,
	"CHAR":     true,
	"NVARCHAR": true,
	"NCHAR":    true,
	"BINARY":   true,
}

const defaultEnumLength = 255

// Generate returns the DDL for s: a header comment, one CREATE TABLE per table
// (followed by its CREATE INDEX statements) and one ALTER TABLE per relationship.
// It never fails; relationships that do not resolve are skipped.
func Generate(s schema.Schema, opts ...Option) string {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	d := cfg.dialect
	if d == nil {
		d = DialectFor(s.Database.Engine)
	}

	var sb strings.Builder
	sb.WriteString("-- Database: " + s.Database.Name + "\n")
	sb.WriteString("-- Engine: " + strings.ToUpper(string(s.Database.Engine)) + "\n")
	sb.WriteString("-- Generated at: " + cfg.now().UTC().Format("2006-01-02T15:04:05.000Z") + "\n\n")

	for _, t := range s.Database.Tables {
		writeTable(&sb, d, t)
		sb.WriteString("\n\n")
	}

	for _, r := range s.Database.Relationships {
		src, srcCol, tgt, tgtCol, err := schema.ResolveRelationship(s, r)
		if err != nil {
			if cfg.onSkip != nil {
				if derr, ok := err.(*schema.DanglingReferenceError); ok {
					cfg.onSkip(derr)
				}
			}
			continue
		}
		writeForeignKey(&sb, r, src.Name, srcCol.Name, tgt.Name, tgtCol.Name)
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeTable(sb *strings.Builder, d Dialect, t schema.Table) {
	pks := t.PrimaryKeyColumns()
	composite := len(pks) > 1

	lines := make([]string, 0, len(t.Columns)+2)
	for _, c := range t.Columns {
		lines = append(lines, columnDefinition(d, c, !composite))
	}
	if composite {
		names := make([]string, len(pks))
		for i, c := range pks {
			names[i] = c.Name
		}
		lines = append(lines, "  PRIMARY KEY ("+strings.Join(names, ", ")+")")
	}
	for _, c := range t.Columns {
		if c.Unique && !c.PrimaryKey {
			lines = append(lines, "  "+d.UniqueConstraint(t.Name, c.Name))
		}
	}

	sb.WriteString("CREATE TABLE " + t.Name + " (\n")
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n)")
	sb.WriteString(d.TableOptions())
	sb.WriteString(";")

	for _, c := range t.Columns {
		if c.Index && !c.PrimaryKey && !c.Unique {
			fmt.Fprintf(sb, "\nCREATE INDEX idx_%s_%s ON %s (%s);", t.Name, c.Name, t.Name, c.Name)
		}
	}
}

func columnDefinition(d Dialect, c schema.Column, inlinePrimaryKey bool) string {
	typ := ColumnType(d, c)
	var autoIncrement string
	if c.AutoIncrement && c.DataType.IsIntegerFamily() {
		typ, autoIncrement = d.AutoIncrement(typ)
	}

	var sb strings.Builder
	sb.WriteString("  " + c.Name + " " + typ)
	if c.Nullable {
		sb.WriteString(" NULL")
	} else {
		sb.WriteString(" NOT NULL")
	}
	if c.DefaultValue != nil && *c.DefaultValue != "" {
		if c.DataType.IsString() {
			sb.WriteString(" DEFAULT " + d.Literal(*c.DefaultValue))
		} else {
			sb.WriteString(" DEFAULT " + *c.DefaultValue)
		}
	}
	if autoIncrement != "" {
		sb.WriteString(" " + autoIncrement)
	}
	if c.PrimaryKey && inlinePrimaryKey {
		sb.WriteString(" PRIMARY KEY")
	}
	if c.Comment != "" && d.SupportsComment() {
		sb.WriteString(" COMMENT " + d.Literal(c.Comment))
	}
	return sb.String()
}

// ColumnType returns the dialect type of a column including its length or precision suffix
func ColumnType(d Dialect, c schema.Column) string {
	typ := d.MapType(c.DataType)

	if c.DataType == schema.Enum {
		if typ == string(schema.Enum) && len(c.Values) > 0 {
			values := make([]string, len(c.Values))
			for i, v := range c.Values {
				values[i] = d.Literal(v)
			}
			return "ENUM(" + strings.Join(values, ",") + ")"
		}
		length := defaultEnumLength
		if c.Length != nil && *c.Length > 0 {
			length = *c.Length
		}
		return fmt.Sprintf("VARCHAR(%d)", length)
	}

	if lengthTypes[typ] && c.Length != nil && *c.Length > 0 {
		return fmt.Sprintf("%s(%d)", typ, *c.Length)
	}
	if typ == string(schema.Decimal) && c.Precision != nil && *c.Precision > 0 && c.Scale != nil {
		return fmt.Sprintf("%s(%d,%d)", typ, *c.Precision, *c.Scale)
	}
	return typ
}

func writeForeignKey(sb *strings.Builder, r schema.Relationship, source, sourceColumn, target, targetColumn string) {
	fmt.Fprintf(sb, "ALTER TABLE %s ADD CONSTRAINT fk_%s_%s FOREIGN KEY (%s) REFERENCES %s(%s)",
		source, source, target, sourceColumn, target, targetColumn)
	if r.OnDelete != schema.NoAction && r.OnDelete != "" {
		sb.WriteString(" ON DELETE " + r.OnDelete.Keyword())
	}
	if r.OnUpdate != schema.NoAction && r.OnUpdate != "" {
		sb.WriteString(" ON UPDATE " + r.OnUpdate.Keyword())
	}
	sb.WriteString(";")
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName returns the download name for an export, e.g. "My_Shop_schema.sql"
func FileName(s schema.Schema, ext string) string {
	return whitespace.ReplaceAllString(s.Database.Name, "_") + "_schema." + strings.TrimPrefix(ext, ".")
}
