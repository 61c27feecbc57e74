package db

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

// sqlClient is shared by the database/sql based clients
type sqlClient struct {
	db *sql.DB
}

func openSQL(ctx context.Context, driver, dsn string) (*sqlClient, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &sqlClient{db: db}, nil
}

// Close closes the database connection
func (c *sqlClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *sqlClient) GetDB() *sql.DB {
	return c.db
}

// Exec runs a statement without arguments
func (c *sqlClient) Exec(ctx context.Context, statement string) error {
	_, err := c.db.ExecContext(ctx, statement)
	return err
}
