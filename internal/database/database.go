// Package database opens connections to the supported platforms and reports what server
// is on the other end.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"

	"trigmap/internal/core"
)

// Driver names registered with database/sql.
const (
	DriverMySQL     = "mysql"
	DriverPgx       = "pgx"
	DriverPQ        = "postgres"
	DriverSQLServer = "sqlserver"
)

// Options describes the connection to open.
type Options struct {
	Dialect core.Dialect
	// Driver overrides the database/sql driver; empty selects the dialect default.
	Driver string
	DSN    string
}

// DefaultDriver returns the driver used for d when none is configured.
func DefaultDriver(d core.Dialect) (string, error) {
	switch d {
	case core.DialectMySQL:
		return DriverMySQL, nil
	case core.DialectPostgreSQL:
		return DriverPgx, nil
	case core.DialectSQLServer:
		return DriverSQLServer, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedDialect, d)
	}
}

// driverFor checks that a configured driver can talk to d.
func driverFor(opts Options) (string, error) {
	def, err := DefaultDriver(opts.Dialect)
	if err != nil {
		return "", err
	}
	drv := strings.ToLower(strings.TrimSpace(opts.Driver))
	if drv == "" {
		return def, nil
	}
	allowed := map[core.Dialect][]string{
		core.DialectMySQL:      {DriverMySQL},
		core.DialectPostgreSQL: {DriverPgx, DriverPQ},
		core.DialectSQLServer:  {DriverSQLServer, "mssql"},
	}
	for _, a := range allowed[opts.Dialect] {
		if drv == a {
			return drv, nil
		}
	}
	return "", &core.ConfigError{
		Key: "database.driver",
		Err: fmt.Errorf("driver %q cannot be used with %s; expected one of %v", opts.Driver, opts.Dialect, allowed[opts.Dialect]),
	}
}

// Open opens a connection and pings it.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, &core.ConfigError{Key: "database.dsn", Err: fmt.Errorf("no DSN configured")}
	}
	drv, err := driverFor(opts)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(drv, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}
	return db, nil
}
