package store

import (
	"database/sql"
	"time"

	"github.com/mkalnins/labelctl/internal/models"
)

// InsertBatch records a batch manifest.
func (s *Store) InsertBatch(meta *models.BatchMeta) error {
	_, err := s.db.Exec(`
		INSERT INTO batches (name, strategy, created_at, example_count, sample_size, model, folded_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		meta.Name, meta.Strategy, meta.CreatedAt.Format(time.RFC3339Nano),
		meta.ExampleCount, meta.SampleSize, meta.Model,
	)
	return err
}

// GetBatch retrieves a batch manifest by name.
func (s *Store) GetBatch(name string) (*models.BatchMeta, error) {
	row := s.db.QueryRow(`
		SELECT name, strategy, created_at, example_count, sample_size, model, folded_at
		FROM batches WHERE name = ?`, name)
	return scanBatch(row)
}

// ListBatches returns batch manifests in creation order (oldest first).
// When unfoldedOnly is set, batches already merged into a snapshot are
// excluded.
func (s *Store) ListBatches(unfoldedOnly bool) ([]*models.BatchMeta, error) {
	query := `
		SELECT name, strategy, created_at, example_count, sample_size, model, folded_at
		FROM batches`
	if unfoldedOnly {
		query += " WHERE folded_at IS NULL"
	}
	query += " ORDER BY created_at ASC, name ASC"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []*models.BatchMeta
	for rows.Next() {
		meta, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}

	return metas, rows.Err()
}

// MarkBatchFolded stamps a batch as merged into the master snapshot.
func (s *Store) MarkBatchFolded(name string, at time.Time) error {
	_, err := s.db.Exec(
		"UPDATE batches SET folded_at = ? WHERE name = ?",
		at.Format(time.RFC3339Nano), name,
	)
	return err
}

// DeleteBatch removes a batch manifest.
func (s *Store) DeleteBatch(name string) error {
	_, err := s.db.Exec("DELETE FROM batches WHERE name = ?", name)
	return err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBatch(row scanner) (*models.BatchMeta, error) {
	var meta models.BatchMeta
	var createdAt string
	var foldedAt sql.NullString

	err := row.Scan(
		&meta.Name, &meta.Strategy, &createdAt,
		&meta.ExampleCount, &meta.SampleSize, &meta.Model, &foldedAt,
	)
	if err != nil {
		return nil, err
	}

	meta.CreatedAt = parseTimestamp(createdAt)
	if foldedAt.Valid {
		t := parseTimestamp(foldedAt.String)
		meta.FoldedAt = &t
	}

	return &meta, nil
}
