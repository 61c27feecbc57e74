package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/dbdesigner/internal/schema"
)

// MermaidFormatter writes an erDiagram block
type MermaidFormatter struct {
	writer io.Writer
}

// NewMermaidFormatter creates a new mermaid formatter
func NewMermaidFormatter(w io.Writer) *MermaidFormatter {
	return &MermaidFormatter{writer: w}
}

// mermaidLinks reads left to right, source to target
var mermaidLinks = map[schema.RelationshipType]string{
	schema.OneToOne:   "||--||",
	schema.OneToMany:  "||--o{",
	schema.ManyToOne:  "}o--||",
	schema.ManyToMany: "}o--o{",
}

func (f *MermaidFormatter) Format(s schema.Schema) error {
	_, _ = fmt.Fprintln(f.writer, "erDiagram")

	views := buildViews(s)
	for _, table := range views {
		_, _ = fmt.Fprintf(f.writer, "    %s {\n", table.Name)
		for _, col := range table.Columns {
			line := fmt.Sprintf("        %s %s", col.DataType, col.Name)
			if keys := mermaidKeys(col, table.ForeignKey[col.ID]); keys != "" {
				line += " " + keys
			}
			if col.Comment != "" {
				line += fmt.Sprintf(" %q", col.Comment)
			}
			_, _ = fmt.Fprintln(f.writer, line)
		}
		_, _ = fmt.Fprintln(f.writer, "    }")
	}

	for _, table := range views {
		for _, rel := range table.Outgoing {
			link, ok := mermaidLinks[rel.Type]
			if !ok {
				link = mermaidLinks[schema.OneToMany]
			}
			label := rel.Name
			if label == "" {
				label = rel.SourceColumn
			}
			_, _ = fmt.Fprintf(f.writer, "    %s %s %s : %q\n", rel.SourceTable, link, rel.TargetTable, label)
		}
	}
	return nil
}

func mermaidKeys(col schema.Column, foreignKey bool) string {
	var keys []string
	if col.PrimaryKey {
		keys = append(keys, "PK")
	}
	if foreignKey {
		keys = append(keys, "FK")
	}
	if col.Unique && !col.PrimaryKey {
		keys = append(keys, "UK")
	}
	return strings.Join(keys, ", ")
}
