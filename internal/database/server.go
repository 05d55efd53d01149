package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"trigmap/internal/core"
)

// RowQueryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type RowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ServerInfo describes the server behind a connection.
type ServerInfo struct {
	Dialect core.Dialect
	// Flavor distinguishes MariaDB from MySQL; it equals the dialect otherwise.
	Flavor  string
	Version string
}

func (s ServerInfo) String() string {
	if s.Version == "" {
		return s.Flavor
	}
	return s.Flavor + " " + s.Version
}

// Detect queries the server for its flavor and version.
func Detect(ctx context.Context, d core.Dialect, db RowQueryer) (ServerInfo, error) {
	switch d {
	case core.DialectMySQL:
		return detectMySQL(ctx, db)
	case core.DialectPostgreSQL:
		var version string
		if err := db.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
			return ServerInfo{}, fmt.Errorf("detect postgresql version: %w", err)
		}
		return ServerInfo{Dialect: d, Flavor: "postgresql", Version: firstField(version)}, nil
	case core.DialectSQLServer:
		var version string
		if err := db.QueryRowContext(ctx, "SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))").Scan(&version); err != nil {
			return ServerInfo{}, fmt.Errorf("detect sqlserver version: %w", err)
		}
		return ServerInfo{Dialect: d, Flavor: "sqlserver", Version: version}, nil
	default:
		return ServerInfo{}, fmt.Errorf("%w: %q", core.ErrUnsupportedDialect, d)
	}
}

func detectMySQL(ctx context.Context, db RowQueryer) (ServerInfo, error) {
	var varName, comment string
	if err := db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment); err != nil {
		return ServerInfo{}, fmt.Errorf("detect mysql flavor: %w", err)
	}

	info := ServerInfo{Dialect: core.DialectMySQL, Flavor: "mysql", Version: mysqlVersion(ctx, db)}
	if strings.Contains(strings.ToLower(comment), "mariadb") {
		info.Flavor = "mariadb"
	}
	return info, nil
}

func mysqlVersion(ctx context.Context, db RowQueryer) string {
	var version string
	_ = db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	if idx := strings.Index(version, "-"); idx > 0 {
		version = version[:idx]
	}
	return version
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}
