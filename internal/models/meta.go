package models

import "time"

// SnapshotMeta is the sidecar manifest entry for a persisted snapshot.
type SnapshotMeta struct {
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	RecordCount int       `json:"record_count"`
}

// BatchMeta is the sidecar manifest entry for a persisted batch artifact.
type BatchMeta struct {
	Name         string     `json:"name"`
	Strategy     string     `json:"strategy"`
	CreatedAt    time.Time  `json:"created_at"`
	ExampleCount int        `json:"example_count"`
	SampleSize   int        `json:"sample_size"`
	Model        string     `json:"model"`
	FoldedAt     *time.Time `json:"folded_at,omitempty"`
}

// Folded reports whether the batch has been merged into a snapshot.
func (b *BatchMeta) Folded() bool {
	return b.FoldedAt != nil
}

// Overwrite is one audit-log entry: a label value replaced during a
// last-write-wins merge.
type Overwrite struct {
	RecordID  string    `json:"record_id"`
	Label     string    `json:"label"`
	OldValue  int       `json:"old_value"`
	NewValue  int       `json:"new_value"`
	BatchName string    `json:"batch_name"`
	Timestamp time.Time `json:"timestamp"`
}
