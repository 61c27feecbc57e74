// Package sqlcheck parses generated DDL to prove it is syntactically valid.
package sqlcheck

import (
	"github.com/cockroachdb/errors"
	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

// Summary counts the statements found in a DDL script
type Summary struct {
	Tables      []string `json:"tables"`
	Indexes     int      `json:"indexes"`
	ForeignKeys int      `json:"foreignKeys"`
	Statements  int      `json:"statements"`
}

// MySQL parses ddl with the MySQL grammar and summarizes it
func MySQL(ddl string) (Summary, error) {
	stmts, _, err := parser.New().Parse(ddl, "", "")
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to parse sql")
	}

	var sum Summary
	for _, stmt := range stmts {
		sum.Statements++
		switch s := stmt.(type) {
		case *ast.CreateTableStmt:
			sum.Tables = append(sum.Tables, s.Table.Name.O)
		case *ast.CreateIndexStmt:
			sum.Indexes++
		case *ast.AlterTableStmt:
			for _, spec := range s.Specs {
				if spec.Tp == ast.AlterTableAddConstraint && spec.Constraint != nil && spec.Constraint.Tp == ast.ConstraintForeignKey {
					sum.ForeignKeys++
				}
			}
		default:
			return sum, errors.Newf("unexpected statement: %s", stmt.Text())
		}
	}
	return sum, nil
}
