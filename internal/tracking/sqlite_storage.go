package tracking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements the Storage interface on an SQLite database
type SQLiteStorage struct {
	dbPath string
	db     *sql.DB
}

// NewSQLiteStorage creates a storage for the database file at dbPath
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	return &SQLiteStorage{dbPath: dbPath}, nil
}

// Initialize opens the database and creates the table if needed
func (s *SQLiteStorage) Initialize() error {
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS import_records (
			id TEXT PRIMARY KEY,
			config_id TEXT NOT NULL,
			process_id TEXT NOT NULL,
			folder TEXT,
			status TEXT NOT NULL,
			images INTEGER,
			failures INTEGER,
			message TEXT,
			started_at INTEGER,
			finished_at INTEGER
		)
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create table: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) AddRecord(record ImportRecord) error {
	if s.db == nil {
		return ErrStorageNotInitialized
	}

	_, err := s.db.Exec(
		`INSERT INTO import_records
		(id, config_id, process_id, folder, status, images, failures, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.ConfigID,
		record.ProcessID,
		record.Folder,
		record.Status,
		record.Images,
		record.Failures,
		record.Message,
		record.StartedAt.UnixNano(),
		record.FinishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) HasRecord(configID, processID string) (bool, error) {
	if s.db == nil {
		return false, ErrStorageNotInitialized
	}

	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM import_records WHERE config_id = ? AND process_id = ? AND status = ?)",
		configID, processID, StatusFinished,
	).Scan(&exists)
	return exists, err
}

func (s *SQLiteStorage) GetRecords(filter map[string]string) ([]ImportRecord, error) {
	if s.db == nil {
		return nil, ErrStorageNotInitialized
	}

	query := "SELECT id, config_id, process_id, folder, status, images, failures, message, started_at, finished_at FROM import_records"
	var (
		where []string
		args  []any
	)
	for _, key := range []string{"config_id", "process_id", "status"} {
		if value, ok := filter[key]; ok {
			where = append(where, key+" = ?")
			args = append(args, value)
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY finished_at"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []ImportRecord
	for rows.Next() {
		var (
			r                 ImportRecord
			started, finished int64
		)
		if err := rows.Scan(&r.ID, &r.ConfigID, &r.ProcessID, &r.Folder, &r.Status,
			&r.Images, &r.Failures, &r.Message, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.StartedAt = time.Unix(0, started).UTC()
		r.FinishedAt = time.Unix(0, finished).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStorage) CleanupOldRecords(retentionDays int) error {
	if s.db == nil {
		return ErrStorageNotInitialized
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := s.db.Exec("DELETE FROM import_records WHERE finished_at < ?", cutoff.UnixNano())
	return err
}
