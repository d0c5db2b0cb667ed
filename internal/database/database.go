// Package database opens the PostgreSQL connection the document pipeline
// runs on. Queries go through database/sql so the repository layer can
// work against either the pool or an open transaction via DBTX.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"creditdocs/internal/config"
)

// pingTimeout bounds the connectivity check at startup so a wrong host
// fails fast instead of hanging the process.
const pingTimeout = 5 * time.Second

// Seam for tests to stub out the driver.
var sqlOpen = sql.Open

// BuildPostgresDSN assembles a postgres:// URL from the configured
// connection parts. Host, port, user, and database name are mandatory;
// password and sslmode are appended only when set.
func BuildPostgresDSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", fmt.Errorf("invalid database config: host, port, user, and name are required")
	}

	userInfo := url.User(c.User)
	if c.Password != "" {
		userInfo = url.UserPassword(c.User, c.Password)
	}

	dsn := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   c.Host + ":" + c.Port,
		Path:   c.Name,
	}
	if c.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}

	return dsn.String(), nil
}

// NewPostgres connects through the pgx stdlib driver wrapped with otelsql,
// so every repository query is traced and SQL-commented with the active
// span. The pool limits come from config; zero values leave the
// database/sql defaults alone. The connection is pinged before it is
// handed to the caller.
func NewPostgres(c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := BuildPostgresDSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}
