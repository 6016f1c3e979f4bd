// Package storage opens the optional SQL backend that can serve tabular
// sources in place of flat files.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// Supported drivers, named as registered with database/sql
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DB is a connection pool that remembers its driver
type DB struct {
	*sql.DB
	Driver string
}

// Open opens and pings the configured database
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}

	conn, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.InfoContext(ctx, "Database connected",
		slog.String("driver", cfg.Driver),
		slog.Int("max_open_conns", cfg.MaxOpenConns))

	return &DB{DB: conn, Driver: cfg.Driver}, nil
}

// Close closes the pool; nil-safe
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// QuoteIdent quotes an identifier for the driver
func (db *DB) QuoteIdent(name string) string {
	if db.Driver == DriverMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder returns the n-th (1-based) bind parameter
func (db *DB) Placeholder(n int) string {
	if db.Driver == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// WriteTable replaces table with the rows of ds inside one transaction.
// Numeric columns are stored as DOUBLE PRECISION, text columns as TEXT; missing values are NULL.
func (db *DB) WriteTable(ctx context.Context, table string, ds *domain.Dataset) error {
	if !config.ValidTableName(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	if ds == nil || ds.Schema().Len() == 0 {
		return fmt.Errorf("dataset for table %s has no columns", table)
	}

	cols := ds.Schema().Columns()
	defs := make([]string, len(cols))
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		typ := "TEXT"
		if c.Type == domain.ColumnNumeric {
			typ = "DOUBLE PRECISION"
		}
		names[i] = db.QuoteIdent(c.Name)
		defs[i] = names[i] + " " + typ
		marks[i] = db.Placeholder(i + 1)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	quoted := db.QuoteIdent(table)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoted, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)
		for j, c := range cols {
			args[j] = sqlArg(row[j], c.Type)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d into %s: %w", i, table, err)
		}
	}

	return tx.Commit()
}

func sqlArg(v domain.Value, typ domain.ColumnType) any {
	if v.IsMissing() {
		return nil
	}
	if typ == domain.ColumnNumeric {
		if f, ok := v.Float(); ok {
			return f
		}
		return nil
	}
	return v.String()
}
