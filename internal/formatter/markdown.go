package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/dbdesigner/internal/schema"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s schema.Schema) error {
	_, _ = fmt.Fprintf(f.writer, "# %s\n\n", s.Database.Name)
	_, _ = fmt.Fprintf(f.writer, "Engine: %s\n\n", s.Database.Engine)

	for _, table := range buildViews(s) {
		f.formatTable(table, false)
	}
	return nil
}

func (f *MarkdownFormatter) formatTable(table tableView, withIncoming bool) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)
	if table.Description != "" {
		_, _ = fmt.Fprintf(f.writer, "%s\n\n", table.Description)
	}

	f.formatColumns(table)
	f.formatRelations(table.Outgoing)
	f.formatIndexes(table.Indexes)
	if withIncoming {
		f.formatIncoming(table.Incoming)
	}
}

func (f *MarkdownFormatter) formatColumns(table tableView) {
	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)

	for _, col := range table.Columns {
		constraintStr := f.formatConstraints(col, table.PrimaryKey, table.ForeignKey[col.ID])
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, typeLabel(col), constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, typeLabel(col))
		}
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatRelations(rels []relation) {
	if len(rels) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer, "### References")
	_, _ = fmt.Fprintln(f.writer)
	for _, rel := range rels {
		line := fmt.Sprintf("- %s → %s.%s (%s)", rel.SourceColumn, rel.TargetTable, rel.TargetColumn, Cardinality(rel.Type))
		if actions := actionsLabel(rel); actions != "" {
			line += ", " + actions
		}
		_, _ = fmt.Fprintln(f.writer, line)
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatIndexes(indexes []namedIndex) {
	if len(indexes) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer, "### Indexes")
	_, _ = fmt.Fprintln(f.writer)
	for _, idx := range indexes {
		switch idx.Type {
		case schema.IndexUnique:
			_, _ = fmt.Fprintf(f.writer, "- %s on (%s), unique\n", idx.Name, strings.Join(idx.Columns, ", "))
		case schema.IndexPrimary:
			_, _ = fmt.Fprintf(f.writer, "- %s on (%s), primary\n", idx.Name, strings.Join(idx.Columns, ", "))
		default:
			_, _ = fmt.Fprintf(f.writer, "- %s on (%s)\n", idx.Name, strings.Join(idx.Columns, ", "))
		}
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatIncoming(rels []relation) {
	if len(rels) == 0 {
		return
	}
	_, _ = fmt.Fprintf(f.writer, "### Referenced by\n\n")
	for _, rel := range rels {
		_, _ = fmt.Fprintf(f.writer, "- %s.%s → %s (%s)\n",
			rel.SourceTable, rel.SourceColumn,
			rel.TargetColumn,
			FormatCardinality(rel.Type, rel.SourceTable, rel.TargetTable))
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatConstraints(col schema.Column, primaryKey []string, foreignKey bool) string {
	var constraints []string

	for _, pk := range primaryKey {
		if pk == col.Name {
			constraints = append(constraints, "PK")
			break
		}
	}
	if foreignKey {
		constraints = append(constraints, "FK")
	}
	if col.Unique && !col.PrimaryKey {
		constraints = append(constraints, "UNIQUE")
	}
	if !col.Nullable {
		constraints = append(constraints, "NOT NULL")
	}
	if col.AutoIncrement {
		constraints = append(constraints, "AUTO_INCREMENT")
	}
	if col.DefaultValue != nil && *col.DefaultValue != "" {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}
	if col.Comment != "" {
		constraints = append(constraints, fmt.Sprintf("_%s_", col.Comment))
	}

	return strings.Join(constraints, ", ")
}
