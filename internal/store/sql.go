package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/i474232898/station-health/internal/health"
)

// Supported SQL drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type dialect struct {
	quote        func(ident string) string
	placeholder  func(n int) string
	columnsQuery string
	vacuum       string // format with the quoted table name
}

var dialects = map[string]dialect{
	DriverPostgres: {
		quote:       func(s string) string { return `"` + s + `"` },
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		columnsQuery: `SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1
			ORDER BY ordinal_position`,
		vacuum: "VACUUM %s",
	},
	DriverMySQL: {
		quote:       func(s string) string { return "`" + s + "`" },
		placeholder: func(int) string { return "?" },
		columnsQuery: `SELECT column_name FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY ordinal_position`,
		vacuum: "OPTIMIZE TABLE %s",
	},
}

// SQLStore keeps records in a relational archive table, one column per
// schema field.
type SQLStore struct {
	db     *sql.DB
	d      dialect
	table  string
	logger *zap.Logger

	insertSQL string
	selectSQL string
}

// Open connects to the database, checks the connection and creates the
// archive table when it does not exist yet.
func Open(ctx context.Context, driver, dsn, table string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s, err := NewSQLStore(db, driver, table, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.InitTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, driver, table string, logger *zap.Logger) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", driver)
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SQLStore{
		db:     db,
		d:      d,
		table:  table,
		logger: logger,
	}

	cols := make([]string, len(health.Schema))
	marks := make([]string, len(health.Schema))
	for i, col := range health.Schema {
		cols[i] = d.quote(col.Name)
		marks[i] = d.placeholder(i + 1)
	}
	colList := strings.Join(cols, ", ")
	s.insertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.quote(table), colList, strings.Join(marks, ", "))
	s.selectSQL = fmt.Sprintf("SELECT %s FROM %s", colList, d.quote(table))
	return s, nil
}

// InitTable creates the archive table if it is missing. An existing table
// is left untouched; use Columns to validate it.
func (s *SQLStore) InitTable(ctx context.Context) error {
	defs := make([]string, len(health.Schema))
	for i, col := range health.Schema {
		typ := "BIGINT"
		if col.Kind == health.KindReal {
			typ = "DOUBLE PRECISION"
		}
		def := s.d.quote(col.Name) + " " + typ
		switch i {
		case 0:
			def += " NOT NULL PRIMARY KEY"
		case 1, 2:
			def += " NOT NULL"
		}
		defs[i] = def
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", s.d.quote(s.table), strings.Join(defs, ",\n\t"))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	s.logger.Info("archive table ready", zap.String("table", s.table))
	return nil
}

// Columns returns the live column names of the archive table, in order.
func (s *SQLStore) Columns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.d.columnsQuery, s.table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", s.table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("columns of %s: %w", s.table, err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// AddRecord appends rec.
func (s *SQLStore) AddRecord(ctx context.Context, rec health.Record) error {
	if _, err := s.db.ExecContext(ctx, s.insertSQL, rec.Values()...); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// DeleteBefore removes every record with DateTime < cutoff and then
// compacts the table. A failed compaction is only logged.
func (s *SQLStore) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s < %s", s.d.quote(s.table), s.d.quote("dateTime"), s.d.placeholder(1))
	res, err := s.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}

	if n > 0 {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(s.d.vacuum, s.d.quote(s.table))); err != nil {
			s.logger.Warn("compact table failed", zap.String("table", s.table), zap.Error(err))
		}
	}
	return n, nil
}

// Latest returns the most recent record.
func (s *SQLStore) Latest(ctx context.Context) (health.Record, error) {
	q := fmt.Sprintf("%s ORDER BY %s DESC LIMIT 1", s.selectSQL, s.d.quote("dateTime"))

	var rec health.Record
	err := s.db.QueryRowContext(ctx, q).Scan(rec.ScanTargets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return health.Record{}, ErrNotFound
	}
	if err != nil {
		return health.Record{}, fmt.Errorf("latest record: %w", err)
	}
	return rec, nil
}

// Range returns records with from <= dateTime <= to, oldest first.
func (s *SQLStore) Range(ctx context.Context, from, to int64) ([]health.Record, error) {
	dt := s.d.quote("dateTime")
	q := fmt.Sprintf("%s WHERE %s >= %s AND %s <= %s ORDER BY %s",
		s.selectSQL, dt, s.d.placeholder(1), dt, s.d.placeholder(2), dt)

	rows, err := s.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("range records: %w", err)
	}
	defer rows.Close()

	var result []health.Record
	for rows.Next() {
		var rec health.Record
		if err := rows.Scan(rec.ScanTargets()...); err != nil {
			return nil, fmt.Errorf("range records: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("range records: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}
