// Package formatter renders a schema as human readable documentation.
package formatter

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/tordrt/dbdesigner/internal/schema"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
	formatMermaid  = "mermaid"
)

// Formatter writes a documentation rendering of a schema
type Formatter interface {
	Format(s schema.Schema) error
}

// New returns the single stream formatter for a format name
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case formatText:
		return NewTextFormatter(w), nil
	case formatMarkdown, "md":
		return NewMarkdownFormatter(w), nil
	case formatMermaid:
		return NewMermaidFormatter(w), nil
	}
	return nil, errors.Newf("unsupported format %q (use text, markdown or mermaid)", format)
}
