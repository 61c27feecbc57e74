package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	*sqlClient
	database string
}

var _ Executor = (*MySQLClient)(nil)

// NewMySQLClient creates a new MySQL client. The DSN uses the driver's
// format, e.g. user:pass@tcp(localhost:3306)/shop.
func NewMySQLClient(ctx context.Context, dsn string) (*MySQLClient, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse dsn")
	}
	cfg.ParseTime = true
	c, err := openSQL(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	return &MySQLClient{sqlClient: c, database: cfg.DBName}, nil
}

// Database returns the schema named in the DSN
func (c *MySQLClient) Database() string {
	return c.database
}
