package logsink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// sqliteTimeFormat is fixed-width (fractional seconds always padded to nine
// digits, offset always Z): lexicographic comparison and ORDER BY on the
// stored strings then match chronological order. RFC3339Nano strips trailing
// zeros, which breaks string comparison at whole-second boundaries.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteSink is a file-backed record store. One row per record; the input
// arguments and extra data are stored as JSON text columns.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if needed) the database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("logsink: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("logsink: open database: %w", err)
	}

	// SQLite pragmas for concurrent writers
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("logsink: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("logsink: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tool_logs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			correlation_id TEXT NOT NULL,
			timestamp      TEXT NOT NULL,
			level          TEXT NOT NULL,
			log_type       TEXT NOT NULL,
			message        TEXT NOT NULL,
			tool_name      TEXT NOT NULL,
			duration_ms    REAL NOT NULL DEFAULT 0,
			status         TEXT NOT NULL,
			input_args     TEXT,
			output_summary TEXT,
			error_message  TEXT,
			error_type     TEXT,
			source         TEXT,
			pid            INTEGER NOT NULL DEFAULT 0,
			extra          TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_tool_logs_correlation ON tool_logs(correlation_id);
		CREATE INDEX IF NOT EXISTS idx_tool_logs_tool ON tool_logs(tool_name);
		CREATE INDEX IF NOT EXISTS idx_tool_logs_timestamp ON tool_logs(timestamp);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Write inserts one record.
func (s *SQLiteSink) Write(ctx context.Context, rec Record) error {
	inputArgs, err := marshalOrEmpty(rec.InputArgs)
	if err != nil {
		return fmt.Errorf("logsink: encode input args: %w", err)
	}
	extra, err := marshalOrEmpty(rec.Extra)
	if err != nil {
		return fmt.Errorf("logsink: encode extra: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tool_logs (
			correlation_id, timestamp, level, log_type, message, tool_name,
			duration_ms, status, input_args, output_summary, error_message,
			error_type, source, pid, extra
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CorrelationID,
		rec.Timestamp.UTC().Format(sqliteTimeFormat),
		rec.Level,
		rec.LogType,
		rec.Message,
		rec.ToolName,
		rec.DurationMS,
		string(rec.Status),
		inputArgs,
		rec.OutputSummary,
		rec.ErrorMessage,
		rec.ErrorType,
		rec.Source,
		rec.PID,
		extra,
	)
	if err != nil {
		return fmt.Errorf("logsink: insert record: %w", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *SQLiteSink) Query(ctx context.Context, f Filter) ([]Record, error) {
	var (
		conds []string
		args  []any
	)
	if f.CorrelationID != "" {
		conds = append(conds, "correlation_id = ?")
		args = append(args, f.CorrelationID)
	}
	if f.ToolName != "" {
		conds = append(conds, "tool_name = ?")
		args = append(args, f.ToolName)
	}
	if f.Level != "" {
		conds = append(conds, "level = ?")
		args = append(args, f.Level)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(sqliteTimeFormat))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, f.Until.UTC().Format(sqliteTimeFormat))
	}

	query := `
		SELECT correlation_id, timestamp, level, log_type, message, tool_name,
		       duration_ms, status, input_args, output_summary, error_message,
		       error_type, source, pid, extra
		FROM tool_logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, f.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("logsink: query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			ts        string
			status    string
			inputArgs sql.NullString
			extra     sql.NullString
		)
		if err := rows.Scan(
			&rec.CorrelationID, &ts, &rec.Level, &rec.LogType, &rec.Message,
			&rec.ToolName, &rec.DurationMS, &status, &inputArgs,
			&rec.OutputSummary, &rec.ErrorMessage, &rec.ErrorType,
			&rec.Source, &rec.PID, &extra,
		); err != nil {
			return nil, fmt.Errorf("logsink: scan record: %w", err)
		}
		rec.Status = Status(status)
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("logsink: parse timestamp %q: %w", ts, err)
		}
		rec.Timestamp = parsed
		if inputArgs.Valid && inputArgs.String != "" {
			_ = json.Unmarshal([]byte(inputArgs.String), &rec.InputArgs)
		}
		if extra.Valid && extra.String != "" {
			_ = json.Unmarshal([]byte(extra.String), &rec.Extra)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("logsink: iterate records: %w", err)
	}
	return records, nil
}

func marshalOrEmpty(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
