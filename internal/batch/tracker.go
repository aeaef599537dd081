package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkalnins/labelctl/internal/models"
	"github.com/mkalnins/labelctl/internal/store"
)

// ErrBatchNotFound is returned when a named batch artifact is missing.
var ErrBatchNotFound = errors.New("batch not found")

const (
	namePrefix = "batch-"
	nameSuffix = ".json"
	timeLayout = "20060102_150405.000000"
)

// Tracker manages batch artifacts in a directory with manifests in the
// sidecar index. Artifacts are immutable once recorded.
type Tracker struct {
	dir    string
	idx    *store.Store
	labels []string
}

// NewTracker creates a batch tracker over the given directory and index.
func NewTracker(dir string, idx *store.Store, labels []string) *Tracker {
	return &Tracker{dir: dir, idx: idx, labels: labels}
}

// Meta describes a batch being recorded.
type Meta struct {
	Strategy     Strategy
	ExampleCount int
	Model        string
}

// name builds a batch artifact name embedding strategy, fixed-width
// sortable timestamp, few-shot example count, sample size, and the
// sanitized model identifier.
func name(strategy Strategy, t time.Time, examples, size int, model string) string {
	return fmt.Sprintf("%s%s-AT-%s-EX%03d-N%04d-MODEL-%s%s",
		namePrefix, strings.ToUpper(string(strategy)), t.Format(timeLayout),
		examples, size, sanitizeModel(model), nameSuffix)
}

// sanitizeModel strips path-unsafe characters from a model identifier.
func sanitizeModel(model string) string {
	if model == "" {
		return "none"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, model)
}

// Record persists a batch as a uniquely named immutable artifact and
// registers its manifest. A partially written batch never becomes visible
// to listing: data goes to a temp file first and is renamed into place
// before the manifest insert.
func (t *Tracker) Record(records []models.Record, meta Meta) (*models.BatchMeta, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("refusing to record empty batch")
	}
	if err := models.ValidateRecords(records, t.labels); err != nil {
		return nil, err
	}

	now := time.Now()
	artifact := name(meta.Strategy, now, meta.ExampleCount, len(records), meta.Model)
	// Microsecond timestamps make same-second collisions unlikely, but
	// uniqueness is still guaranteed by probing
	for fileExists(filepath.Join(t.dir, artifact)) {
		now = now.Add(time.Microsecond)
		artifact = name(meta.Strategy, now, meta.ExampleCount, len(records), meta.Model)
	}

	data, err := models.EncodeRecords(records)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(t.dir, artifact, data); err != nil {
		return nil, fmt.Errorf("write batch %s: %w", artifact, err)
	}

	bm := &models.BatchMeta{
		Name:         artifact,
		Strategy:     string(meta.Strategy),
		CreatedAt:    now,
		ExampleCount: meta.ExampleCount,
		SampleSize:   len(records),
		Model:        meta.Model,
	}
	if err := t.idx.InsertBatch(bm); err != nil {
		return nil, fmt.Errorf("index batch %s: %w", artifact, err)
	}

	return bm, nil
}

// Load reads and validates a batch artifact by name.
func (t *Tracker) Load(batchName string) ([]models.Record, error) {
	data, err := os.ReadFile(filepath.Join(t.dir, batchName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", batchName, ErrBatchNotFound)
		}
		return nil, fmt.Errorf("read batch %s: %w", batchName, err)
	}

	records, err := models.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", batchName, err)
	}
	if err := models.ValidateRecords(records, t.labels); err != nil {
		return nil, fmt.Errorf("batch %s: %w", batchName, err)
	}
	return records, nil
}

// List returns batch manifests in creation order.
func (t *Tracker) List(unfoldedOnly bool) ([]*models.BatchMeta, error) {
	return t.idx.ListBatches(unfoldedOnly)
}

// Get returns the manifest for a named batch.
func (t *Tracker) Get(batchName string) (*models.BatchMeta, error) {
	meta, err := t.idx.GetBatch(batchName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", batchName, ErrBatchNotFound)
	}
	return meta, nil
}

// MarkFolded stamps a batch as merged into the master snapshot.
func (t *Tracker) MarkFolded(batchName string, at time.Time) error {
	return t.idx.MarkBatchFolded(batchName, at)
}

// Prune deletes all but the keepLatest most recent batches, returning the
// names removed. Artifacts are deleted before their manifests so listing
// never shows a manifest whose file survived by accident.
func (t *Tracker) Prune(keepLatest int) ([]string, error) {
	if keepLatest < 0 {
		keepLatest = 0
	}

	metas, err := t.idx.ListBatches(false)
	if err != nil {
		return nil, err
	}
	if len(metas) <= keepLatest {
		return nil, nil
	}

	var deleted []string
	for _, meta := range metas[:len(metas)-keepLatest] {
		if err := os.Remove(filepath.Join(t.dir, meta.Name)); err != nil && !os.IsNotExist(err) {
			return deleted, fmt.Errorf("delete batch %s: %w", meta.Name, err)
		}
		if err := t.idx.DeleteBatch(meta.Name); err != nil {
			return deleted, fmt.Errorf("delete batch manifest %s: %w", meta.Name, err)
		}
		deleted = append(deleted, meta.Name)
	}

	return deleted, nil
}

// writeFileAtomic writes data to dir/name via a temp file, fsync, and rename.
func writeFileAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
