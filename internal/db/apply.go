package db

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/tordrt/dbdesigner/internal/schema"
)

// Executor runs a single SQL statement
type Executor interface {
	Exec(ctx context.Context, statement string) error
}

// Apply executes DDL written for engine one statement at a time. It stops at
// the first failing statement; statements already executed are not rolled back.
func Apply(ctx context.Context, log logger.Logger, exec Executor, engine schema.Engine, ddl string) (int, error) {
	statements := SplitStatements(ddl, engine)
	for i, stmt := range statements {
		if log != nil {
			log.Debug("executing statement %d/%d", i+1, len(statements))
		}
		if err := exec.Exec(ctx, stmt); err != nil {
			return i, errors.Wrapf(err, "failed to execute statement %d: %s", i+1, firstLine(stmt))
		}
	}
	if log != nil {
		log.Info("applied %d statements", len(statements))
	}
	return len(statements), nil
}

// SplitStatements splits a script on semicolons outside quoted text and drops
// "--" comments and blank statements. Whether a backslash escapes the next
// character of a string literal depends on engine.
func SplitStatements(ddl string, engine schema.Engine) []string {
	var statements []string
	var current strings.Builder
	var quote byte
	var escapes bool
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(ddl); i++ {
		ch := ddl[i]
		if quote != 0 {
			current.WriteByte(ch)
			if ch == '\\' && escapes && i+1 < len(ddl) {
				i++
				current.WriteByte(ddl[i])
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			escapes = ch == '\'' && backslashEscapes(engine, ddl, i)
			current.WriteByte(ch)
		case ch == '-' && i+1 < len(ddl) && ddl[i+1] == '-':
			for i < len(ddl) && ddl[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return statements
}

// backslashEscapes reports whether a backslash escapes the next character in
// the string literal opened at ddl[open]. PostgreSQL only honours it in E''
// strings and SQL Server never does.
func backslashEscapes(engine schema.Engine, ddl string, open int) bool {
	switch engine {
	case schema.EngineSQLServer:
		return false
	case schema.EnginePostgreSQL:
		if open == 0 || (ddl[open-1] != 'E' && ddl[open-1] != 'e') {
			return false
		}
		return open == 1 || !isIdentByte(ddl[open-2])
	}
	return true
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
