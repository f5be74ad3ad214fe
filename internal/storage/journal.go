package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// JournalRecord is one accepted file as persisted in the journal
type JournalRecord struct {
	Path       string
	FileName   string
	Category   string
	FormatType string
	SizeKB     float64
	ModifiedAt time.Time
	CreatedAt  time.Time
	AddedAt    time.Time
	UniqueID   int64
}

// ActionLogEntry records one executed action
type ActionLogEntry struct {
	ID          string
	ActionType  string
	Destination string
	ExecutedAt  time.Time
	Succeeded   bool
	Error       string
}

const metaKeyNextUniqueID = "next_unique_id"

// Journal provides the persistence operations the orchestrator uses
type Journal struct {
	db *DB
}

// NewJournal creates a journal over an open database
func NewJournal(db *DB) *Journal {
	return &Journal{db: db}
}

// SaveRecord inserts or replaces a file record
func (j *Journal) SaveRecord(rec *JournalRecord) error {
	_, err := j.db.conn.Exec(`
		INSERT OR REPLACE INTO file_records
			(path, file_name, category, format_type, size_kb, modified_at, created_at, added_at, unique_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Path, rec.FileName, rec.Category, rec.FormatType, rec.SizeKB,
		rec.ModifiedAt.Unix(), rec.CreatedAt.Unix(), rec.AddedAt.Unix(), rec.UniqueID)
	if err != nil {
		return fmt.Errorf("failed to save file record: %w", err)
	}
	return nil
}

// DeleteRecord removes a file record by path; unknown paths are a no-op
func (j *Journal) DeleteRecord(path string) error {
	if _, err := j.db.conn.Exec(`DELETE FROM file_records WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	return nil
}

// GetRecord returns the journal record for a path, or nil when absent
func (j *Journal) GetRecord(path string) (*JournalRecord, error) {
	row := j.db.conn.QueryRow(`
		SELECT path, file_name, category, format_type, size_kb, modified_at, created_at, added_at, unique_id
		FROM file_records WHERE path = ?
	`, path)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ListRecords returns all journal records, optionally filtered by category
func (j *Journal) ListRecords(category string) ([]JournalRecord, error) {
	query := `SELECT path, file_name, category, format_type, size_kb, modified_at, created_at, added_at, unique_id FROM file_records`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY unique_id`

	rows, err := j.db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query file records: %w", err)
	}
	defer rows.Close()

	var records []JournalRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanRecord(scan func(...interface{}) error) (*JournalRecord, error) {
	var rec JournalRecord
	var modified, created, added int64
	err := scan(&rec.Path, &rec.FileName, &rec.Category, &rec.FormatType, &rec.SizeKB,
		&modified, &created, &added, &rec.UniqueID)
	if err != nil {
		return nil, err
	}
	rec.ModifiedAt = time.Unix(modified, 0).UTC()
	rec.CreatedAt = time.Unix(created, 0).UTC()
	rec.AddedAt = time.Unix(added, 0).UTC()
	return &rec, nil
}

// NextUniqueID returns the persisted unique-id high-water mark.
// Ids are never reissued, even across restarts.
func (j *Journal) NextUniqueID() (int64, error) {
	var value string
	err := j.db.conn.QueryRow(`SELECT value FROM intel_meta WHERE key = ?`, metaKeyNextUniqueID).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read next unique id: %w", err)
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt next unique id %q: %w", value, err)
	}
	return id, nil
}

// SetNextUniqueID persists the unique-id high-water mark
func (j *Journal) SetNextUniqueID(id int64) error {
	_, err := j.db.conn.Exec(`INSERT OR REPLACE INTO intel_meta (key, value) VALUES (?, ?)`,
		metaKeyNextUniqueID, strconv.FormatInt(id, 10))
	if err != nil {
		return fmt.Errorf("failed to persist next unique id: %w", err)
	}
	return nil
}

// LogAction appends one executed action to the action log
func (j *Journal) LogAction(e *ActionLogEntry) error {
	succeeded := 0
	if e.Succeeded {
		succeeded = 1
	}
	_, err := j.db.conn.Exec(`
		INSERT INTO action_log (id, action_type, destination, executed_at, succeeded, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.ActionType, e.Destination, e.ExecutedAt.Unix(), succeeded, e.Error)
	if err != nil {
		return fmt.Errorf("failed to log action: %w", err)
	}
	return nil
}

// ListActions returns the executed-action history, newest last
func (j *Journal) ListActions() ([]ActionLogEntry, error) {
	rows, err := j.db.conn.Query(`
		SELECT id, action_type, destination, executed_at, succeeded, error
		FROM action_log ORDER BY executed_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query action log: %w", err)
	}
	defer rows.Close()

	var entries []ActionLogEntry
	for rows.Next() {
		var e ActionLogEntry
		var executed int64
		var succeeded int
		var errText sql.NullString
		if err := rows.Scan(&e.ID, &e.ActionType, &e.Destination, &executed, &succeeded, &errText); err != nil {
			return nil, err
		}
		e.ExecutedAt = time.Unix(executed, 0).UTC()
		e.Succeeded = succeeded == 1
		if errText.Valid {
			e.Error = errText.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
