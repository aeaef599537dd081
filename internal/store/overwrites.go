package store

import (
	"database/sql"

	"github.com/mkalnins/labelctl/internal/models"
)

// RecordOverwrite appends one audit-log entry for a label value replaced
// during a last-write-wins merge.
func (s *Store) RecordOverwrite(ow *models.Overwrite) error {
	_, err := s.db.Exec(`
		INSERT INTO overwrites (record_id, label, old_value, new_value, batch_name)
		VALUES (?, ?, ?, ?, ?)`,
		ow.RecordID, ow.Label, ow.OldValue, ow.NewValue, ow.BatchName,
	)
	return err
}

// RecordOverwrites appends a set of audit-log entries in one transaction.
func (s *Store) RecordOverwrites(ows []*models.Overwrite) error {
	if len(ows) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO overwrites (record_id, label, old_value, new_value, batch_name)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, ow := range ows {
		if _, err := stmt.Exec(ow.RecordID, ow.Label, ow.OldValue, ow.NewValue, ow.BatchName); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// ListOverwrites returns audit-log entries, newest first. A limit of 0
// returns all entries.
func (s *Store) ListOverwrites(limit int) ([]*models.Overwrite, error) {
	query := `
		SELECT record_id, label, old_value, new_value, batch_name, timestamp
		FROM overwrites
		ORDER BY id DESC`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ows []*models.Overwrite
	for rows.Next() {
		var ow models.Overwrite
		var ts string
		if err := rows.Scan(&ow.RecordID, &ow.Label, &ow.OldValue, &ow.NewValue, &ow.BatchName, &ts); err != nil {
			return nil, err
		}
		ow.Timestamp = parseTimestamp(ts)
		ows = append(ows, &ow)
	}

	return ows, rows.Err()
}

// OverwriteCount returns the total number of audit-log entries.
func (s *Store) OverwriteCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM overwrites").Scan(&count)
	return count, err
}
