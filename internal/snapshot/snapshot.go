// Package snapshot persists the authoritative labeled record set as
// timestamped, size-tagged JSON artifacts. Exactly one snapshot is
// canonical at any time; replacement is write-new-then-delete-old, never
// delete-then-write, so a reader can never observe zero snapshots between
// a successful fold-in and the old snapshot's removal.
package snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mkalnins/labelctl/internal/models"
	"github.com/mkalnins/labelctl/internal/store"
)

// ErrSnapshotNotFound is returned when a named snapshot file is missing.
// This is distinct from the valid initial state of no snapshot existing
// yet, which Latest reports as a nil meta without an error.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const (
	namePrefix  = "master-AT-"
	nameSuffix  = ".json"
	timeLayout  = "20060102_150405.000000"
	countDigits = 6
)

// Store manages snapshot artifacts in a directory, with manifests and the
// canonical-snapshot pointer kept in the sidecar index.
type Store struct {
	dir    string
	idx    *store.Store
	labels []string

	// Logger receives warnings about superseded artifacts that could not
	// be cleaned up. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewStore creates a snapshot store over the given directory and index.
func NewStore(dir string, idx *store.Store, labels []string) *Store {
	return &Store{dir: dir, idx: idx, labels: labels}
}

// Name builds a snapshot artifact name. The timestamp is fixed-width with
// a microsecond disambiguator so lexicographic order matches chronological
// order, and the record count is embedded zero-padded.
func Name(t time.Time, count int) string {
	return fmt.Sprintf("%s%s-TOTAL-%0*d%s", namePrefix, t.Format(timeLayout), countDigits, count, nameSuffix)
}

// ParseName extracts the creation time and record count from a snapshot name.
func ParseName(name string) (time.Time, int, error) {
	if !strings.HasPrefix(name, namePrefix) || !strings.HasSuffix(name, nameSuffix) {
		return time.Time{}, 0, fmt.Errorf("not a snapshot name: %q", name)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(name, namePrefix), nameSuffix)
	parts := strings.SplitN(body, "-TOTAL-", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("malformed snapshot name: %q", name)
	}
	t, err := time.ParseInLocation(timeLayout, parts[0], time.Local)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed snapshot timestamp in %q: %w", name, err)
	}
	var count int
	if _, err := fmt.Sscanf(parts[1], "%d", &count); err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed snapshot count in %q: %w", name, err)
	}
	return t, count, nil
}

// Write persists records as the new canonical snapshot. The artifact is
// written to a temporary file and atomically renamed before the index
// pointer moves; superseded snapshot files are deleted only after both
// steps succeed.
func (s *Store) Write(records []models.Record) (*models.SnapshotMeta, error) {
	if err := models.ValidateRecords(records, s.labels); err != nil {
		return nil, err
	}

	previous, err := s.snapshotFiles()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	name := Name(now, len(records))
	// Same-microsecond collision — nudge forward until the name is free
	for fileExists(filepath.Join(s.dir, name)) {
		now = now.Add(time.Microsecond)
		name = Name(now, len(records))
	}

	data, err := models.EncodeRecords(records)
	if err != nil {
		return nil, err
	}

	if err := writeFileAtomic(s.dir, name, data); err != nil {
		return nil, fmt.Errorf("write snapshot %s: %w", name, err)
	}

	meta := &models.SnapshotMeta{
		Name:        name,
		CreatedAt:   now,
		RecordCount: len(records),
	}
	if err := s.idx.InsertSnapshot(meta); err != nil {
		return nil, fmt.Errorf("index snapshot %s: %w", name, err)
	}
	if err := s.idx.SetCurrentSnapshot(name); err != nil {
		return nil, fmt.Errorf("set current snapshot: %w", err)
	}

	// Replacement is durable, now the old snapshots can go. A failed
	// cleanup never fails the write; the stale artifact is reported and
	// retried on the next replacement.
	s.removeSuperseded(previous, name)

	return meta, nil
}

// removeSuperseded deletes old snapshot files and their manifests, keeping
// the named current snapshot. Failures are logged per artifact; an
// artifact whose file cannot be removed keeps its manifest so the index
// still shows it. Returns the names that were not fully removed.
func (s *Store) removeSuperseded(previous []string, keep string) []string {
	var stale []string
	for _, old := range previous {
		if old == keep {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, old)); err != nil && !os.IsNotExist(err) {
			s.logger().Warn("failed to delete superseded snapshot", "name", old, "error", err)
			stale = append(stale, old)
			continue
		}
		if err := s.idx.DeleteSnapshot(old); err != nil {
			s.logger().Warn("failed to delete snapshot manifest", "name", old, "error", err)
			stale = append(stale, old)
		}
	}
	return stale
}

func (s *Store) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Latest returns the canonical snapshot. A nil meta with a nil error means
// no snapshot exists yet, which is a valid initial state.
func (s *Store) Latest() ([]models.Record, *models.SnapshotMeta, error) {
	name, err := s.idx.GetCurrentSnapshot()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve current snapshot: %w", err)
	}

	if name == "" {
		// Index may be fresh while artifacts exist (e.g. rebuilt sidecar);
		// fall back to a directory scan and adopt the newest file.
		name, err = s.scanLatest()
		if err != nil {
			return nil, nil, err
		}
		if name == "" {
			return nil, nil, nil
		}
		if err := s.adopt(name); err != nil {
			return nil, nil, err
		}
	}

	records, err := s.Load(name)
	if err != nil {
		return nil, nil, err
	}

	meta, err := s.idx.GetSnapshot(name)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot manifest %s: %w", name, err)
	}
	return records, meta, nil
}

// Load reads and validates a snapshot artifact by name.
func (s *Store) Load(name string) ([]models.Record, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}

	records, err := models.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	if err := models.ValidateRecords(records, s.labels); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	return records, nil
}

// LabeledIDs returns the set of record ids present in the canonical
// snapshot. Empty set when no snapshot exists yet.
func (s *Store) LabeledIDs() (map[string]bool, error) {
	records, _, err := s.Latest()
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(records))
	for _, r := range records {
		ids[r.ID] = true
	}
	return ids, nil
}

// scanLatest returns the lexicographically last snapshot filename in the
// directory, or "" when none exist.
func (s *Store) scanLatest() (string, error) {
	names, err := s.snapshotFiles()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return names[len(names)-1], nil
}

// adopt registers an artifact discovered on disk into the index and makes
// it the canonical snapshot.
func (s *Store) adopt(name string) error {
	createdAt, count, err := ParseName(name)
	if err != nil {
		return err
	}
	meta := &models.SnapshotMeta{Name: name, CreatedAt: createdAt, RecordCount: count}
	if err := s.idx.InsertSnapshot(meta); err != nil {
		return fmt.Errorf("adopt snapshot %s: %w", name, err)
	}
	return s.idx.SetCurrentSnapshot(name)
}

// snapshotFiles lists snapshot artifact filenames currently on disk.
func (s *Store) snapshotFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshots directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), namePrefix) && strings.HasSuffix(e.Name(), nameSuffix) {
			names = append(names, e.Name())
		}
	}
	return names, nil
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
