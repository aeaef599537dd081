package store

import (
	"time"

	"github.com/mkalnins/labelctl/internal/models"
)

// currentSnapshotKey is the kv key holding the canonical snapshot name.
const currentSnapshotKey = "current_snapshot"

// InsertSnapshot records a snapshot manifest.
func (s *Store) InsertSnapshot(meta *models.SnapshotMeta) error {
	_, err := s.db.Exec(`
		INSERT INTO snapshots (name, created_at, record_count)
		VALUES (?, ?, ?)`,
		meta.Name, meta.CreatedAt.Format(time.RFC3339Nano), meta.RecordCount,
	)
	return err
}

// DeleteSnapshot removes a snapshot manifest.
func (s *Store) DeleteSnapshot(name string) error {
	_, err := s.db.Exec("DELETE FROM snapshots WHERE name = ?", name)
	return err
}

// GetSnapshot retrieves a snapshot manifest by name.
func (s *Store) GetSnapshot(name string) (*models.SnapshotMeta, error) {
	var meta models.SnapshotMeta
	var createdAt string

	err := s.db.QueryRow(`
		SELECT name, created_at, record_count
		FROM snapshots WHERE name = ?`, name).Scan(
		&meta.Name, &createdAt, &meta.RecordCount,
	)
	if err != nil {
		return nil, err
	}

	meta.CreatedAt = parseTimestamp(createdAt)
	return &meta, nil
}

// ListSnapshots returns all snapshot manifests in reverse chronological order.
func (s *Store) ListSnapshots() ([]*models.SnapshotMeta, error) {
	rows, err := s.db.Query(`
		SELECT name, created_at, record_count
		FROM snapshots
		ORDER BY created_at DESC, name DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []*models.SnapshotMeta
	for rows.Next() {
		var meta models.SnapshotMeta
		var createdAt string

		if err := rows.Scan(&meta.Name, &createdAt, &meta.RecordCount); err != nil {
			return nil, err
		}

		meta.CreatedAt = parseTimestamp(createdAt)
		metas = append(metas, &meta)
	}

	return metas, rows.Err()
}

// GetCurrentSnapshot returns the name of the canonical snapshot, or ""
// when no snapshot exists yet.
func (s *Store) GetCurrentSnapshot() (string, error) {
	return s.GetValue(currentSnapshotKey)
}

// SetCurrentSnapshot sets the canonical snapshot pointer.
func (s *Store) SetCurrentSnapshot(name string) error {
	return s.SetValue(currentSnapshotKey, name)
}
