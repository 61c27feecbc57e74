package db

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tordrt/dbdesigner/internal/schema"
)

// Connection is an open database together with the extractor for its engine
type Connection struct {
	Kind      string
	Engine    schema.Engine
	Executor  Executor
	Extractor Extractor
	close     func() error
}

// Close closes the underlying client
func (c *Connection) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Introspect reads the database into a design named name
func (c *Connection) Introspect(ctx context.Context, tables []string, name string) (schema.Schema, error) {
	if c.Extractor == nil {
		return schema.Schema{}, errors.Newf("introspection is not supported for %s", c.Kind)
	}
	return Introspect(ctx, c.Extractor, tables, name, c.Engine)
}

// ParseURL detects the database type and returns the driver connection string
func ParseURL(url string) (kind, connectionStr string, err error) {
	if url == "" {
		return "", "", errors.New("database URL is required")
	}

	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres", url, nil
	case strings.HasPrefix(url, "mysql://"):
		// the Go MySQL driver takes a DSN without a scheme
		return "mysql", strings.TrimPrefix(url, "mysql://"), nil
	case strings.HasPrefix(url, "sqlite://"):
		return "sqlite", strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "sqlserver://"):
		return "sqlserver", url, nil
	}

	return "", "", errors.New("invalid database URL scheme (must start with postgres://, mysql://, sqlite:// or sqlserver://)")
}

// Open connects to the database named by url. schemaName selects the
// PostgreSQL schema or MySQL database to introspect and may be empty.
func Open(ctx context.Context, url, schemaName string) (*Connection, error) {
	kind, connStr, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "postgres":
		client, err := NewPostgresClient(ctx, connStr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to PostgreSQL")
		}
		return &Connection{
			Kind:      kind,
			Engine:    schema.EnginePostgreSQL,
			Executor:  client,
			Extractor: NewPostgresExtractor(client, schemaName),
			close:     func() error { return client.Close(context.Background()) },
		}, nil
	case "mysql":
		client, err := NewMySQLClient(ctx, connStr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to MySQL")
		}
		return &Connection{
			Kind:      kind,
			Engine:    schema.EngineMySQL,
			Executor:  client,
			Extractor: NewMySQLExtractor(client, schemaName),
			close:     client.Close,
		}, nil
	case "sqlite":
		client, err := NewSQLiteClient(ctx, connStr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to SQLite")
		}
		// SQLite is not a design target; its tables are designed as MySQL
		return &Connection{
			Kind:      kind,
			Engine:    schema.EngineMySQL,
			Executor:  client,
			Extractor: NewSQLiteExtractor(client),
			close:     client.Close,
		}, nil
	default:
		client, err := NewSQLServerClient(ctx, connStr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to SQL Server")
		}
		return &Connection{
			Kind:     kind,
			Engine:   schema.EngineSQLServer,
			Executor: client,
			close:    client.Close,
		}, nil
	}
}
