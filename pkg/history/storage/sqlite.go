package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/history"
)

const sqliteBackend = "sqlite"

// SQLiteStorage implements history.Storage on an embedded SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	cfg    config.SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database at cfg.Path and
// migrates it to SchemaVersion.
func NewSQLiteStorage(cfg config.SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		cfg.Path = config.DefaultHistorySQLitePath
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = config.DefaultHistorySQLiteMaxOpenConns
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = config.DefaultHistorySQLiteBusyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "history.storage.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, history.NewStorageError(sqliteBackend, "open", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, history.NewStorageError(sqliteBackend, "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStorage{db: db, cfg: cfg, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)
	return s, nil
}

// dsn carries the pragmas in the connection string so that every pooled
// connection gets them.
func dsn(cfg config.SQLiteConfig) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	if cfg.WALMode {
		params.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + cfg.Path + "?" + params.Encode()
}

func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return history.NewStorageError(sqliteBackend, "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return history.NewStorageError(sqliteBackend, "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return history.NewStorageError(sqliteBackend, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return history.NewStorageError(sqliteBackend, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store inserts a record. Records are immutable; storing an existing ID fails.
func (s *SQLiteStorage) Store(ctx context.Context, record *history.Record) error {
	errs := string(record.Errors)
	if errs == "" {
		errs = "[]"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO validations (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.SchemaName, record.SchemaFingerprint, record.PayloadHash, record.PayloadSize,
		record.Valid, record.ErrorCount, errs, record.Source,
		int64(record.Duration), record.RecordedAt.UnixNano(),
	)
	if err != nil {
		return history.NewStorageError(sqliteBackend, "store", err)
	}
	return nil
}

// Query returns matching records ordered by recording time.
func (s *SQLiteStorage) Query(ctx context.Context, query *history.Query) ([]*history.Record, error) {
	where, args := buildWhereClause(query)

	sqlQuery := "SELECT " + selectColumns + " FROM validations"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	order := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY recorded_at %s, id %s", order, order)

	limit := history.DefaultQueryLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, history.NewStorageError(sqliteBackend, "query", err)
	}
	defer rows.Close()

	records := []*history.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, history.NewStorageError(sqliteBackend, "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, history.NewStorageError(sqliteBackend, "query", err)
	}
	return records, nil
}

// Count returns the number of matching records.
func (s *SQLiteStorage) Count(ctx context.Context, query *history.Query) (int64, error) {
	where, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM validations"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, history.NewStorageError(sqliteBackend, "count", err)
	}
	return count, nil
}

// Delete removes matching records.
func (s *SQLiteStorage) Delete(ctx context.Context, query *history.Query) (int64, error) {
	where, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM validations"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, history.NewStorageError(sqliteBackend, "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, history.NewStorageError(sqliteBackend, "delete", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return history.NewStorageError(sqliteBackend, "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// buildWhereClause returns the conditions (without WHERE) and their args.
func buildWhereClause(query *history.Query) (string, []any) {
	if query == nil {
		return "", nil
	}

	var conditions []string
	var args []any

	if len(query.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(query.IDs)), ",")
		conditions = append(conditions, "id IN ("+placeholders+")")
		for _, id := range query.IDs {
			args = append(args, id)
		}
	}
	if query.SchemaName != "" {
		conditions = append(conditions, "schema_name = ?")
		args = append(args, query.SchemaName)
	}
	if query.Valid != nil {
		conditions = append(conditions, "valid = ?")
		args = append(args, *query.Valid)
	}
	if query.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, query.Source)
	}
	if query.StartTime != nil {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "recorded_at <= ?")
		args = append(args, query.EndTime.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}

func scanRow(rows *sql.Rows) (*history.Record, error) {
	var record history.Record
	var errs string
	var duration, recordedAt int64

	err := rows.Scan(
		&record.ID, &record.SchemaName, &record.SchemaFingerprint, &record.PayloadHash, &record.PayloadSize,
		&record.Valid, &record.ErrorCount, &errs, &record.Source, &duration, &recordedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Errors = []byte(errs)
	record.Duration = time.Duration(duration)
	record.RecordedAt = time.Unix(0, recordedAt).UTC()
	return &record, nil
}
