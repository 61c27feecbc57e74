package db

import (
	"context"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	*sqlClient
}

var _ Executor = (*SQLiteClient)(nil)

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	c, err := openSQL(ctx, "sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteClient{sqlClient: c}, nil
}
