package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tordrt/dbdesigner/internal/schema"
)

// MultiFileFormatter writes schema to multiple files in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
}

var _ Formatter = (*MultiFileFormatter)(nil)

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes an overview file and one file per table
func (f *MultiFileFormatter) Format(s schema.Schema) error {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	views := buildViews(s)
	if err := f.writeFile("_overview", func(w io.Writer) { f.writeOverview(w, s.Database.Name, views) }); err != nil {
		return errors.Wrap(err, "failed to write overview")
	}

	for _, table := range views {
		table := table
		if err := f.writeFile(table.Name, func(w io.Writer) { f.writeTable(w, table) }); err != nil {
			return errors.Wrapf(err, "failed to write table file for %s", table.Name)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeFile(name string, write func(io.Writer)) error {
	file, err := os.Create(filepath.Join(f.OutputDir, name+f.getFileExtension()))
	if err != nil {
		return err
	}
	write(file)
	return file.Close()
}

func (f *MultiFileFormatter) writeOverview(w io.Writer, dbName string, views []tableView) {
	sorted := make([]tableView, len(views))
	copy(sorted, views)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	if f.OutputFormat == formatMarkdown {
		_, _ = fmt.Fprintf(w, "# %s overview\n\n", dbName)
		_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<table_name>%s`\n\n", f.getFileExtension())
		_, _ = fmt.Fprintf(w, "## Tables\n\n")
		for _, table := range sorted {
			_, _ = fmt.Fprintf(w, "- **%s**%s\n", table.Name, referencesSuffix(table, ", "))
		}
		return
	}

	_, _ = fmt.Fprintf(w, "SCHEMA OVERVIEW: %s\n", dbName)
	_, _ = fmt.Fprintf(w, "Each table has a file: <table_name>%s\n\n", f.getFileExtension())
	for _, table := range sorted {
		_, _ = fmt.Fprintf(w, "%s%s\n", table.Name, referencesSuffix(table, ","))
	}
}

// referencesSuffix lists the distinct tables a table points at
func referencesSuffix(table tableView, sep string) string {
	if len(table.Outgoing) == 0 {
		return ""
	}
	seen := map[string]bool{}
	var targets []string
	for _, rel := range table.Outgoing {
		if !seen[rel.TargetTable] {
			seen[rel.TargetTable] = true
			targets = append(targets, rel.TargetTable)
		}
	}
	return fmt.Sprintf(" (references: %s)", strings.Join(targets, sep))
}

func (f *MultiFileFormatter) writeTable(w io.Writer, table tableView) {
	if f.OutputFormat == formatMarkdown {
		NewMarkdownFormatter(w).formatTable(table, true)
		return
	}

	NewTextFormatter(w).formatTable(table)
	if len(table.Incoming) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  REFERENCED BY:")
		for _, rel := range table.Incoming {
			_, _ = fmt.Fprintf(w, "    %s.%s → %s (%s)\n", rel.SourceTable, rel.SourceColumn, rel.TargetColumn, Cardinality(rel.Type))
		}
	}
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == formatMarkdown {
		return ".md"
	}
	return ".txt"
}
