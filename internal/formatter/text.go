package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/dbdesigner/internal/schema"
)

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s schema.Schema) error {
	_, _ = fmt.Fprintf(f.writer, "DATABASE %s (%s)\n\n", s.Database.Name, strings.ToUpper(string(s.Database.Engine)))
	for i, table := range buildViews(s) {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		f.formatTable(table)
	}
	return nil
}

func (f *TextFormatter) formatTable(table tableView) {
	pkStr := ""
	if len(table.PrimaryKey) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKey, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)
	if table.Description != "" {
		_, _ = fmt.Fprintf(f.writer, "  -- %s\n", table.Description)
	}

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	if len(table.Outgoing) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, rel := range table.Outgoing {
			actions := actionsLabel(rel)
			if actions != "" {
				actions = " " + actions
			}
			_, _ = fmt.Fprintf(f.writer, "    %s → %s.%s (%s)%s\n", rel.SourceColumn, rel.TargetTable, rel.TargetColumn, Cardinality(rel.Type), actions)
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range table.Indexes {
			kind := ""
			if idx.Type != schema.IndexPlain {
				kind = " " + string(idx.Type)
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), kind)
		}
	}
}

func (f *TextFormatter) formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":", typeLabel(col)}

	if col.Unique && !col.PrimaryKey {
		parts = append(parts, "UNIQUE")
	}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if col.DefaultValue != nil && *col.DefaultValue != "" {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}
	if col.Index && !col.PrimaryKey && !col.Unique {
		parts = append(parts, "INDEXED")
	}
	if col.Comment != "" {
		parts = append(parts, "-- "+col.Comment)
	}

	return strings.Join(parts, " ")
}
