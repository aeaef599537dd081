package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkalnins/labelctl/internal/models"
)

// newTestStore creates a sqlite index in a temp directory for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Initialize())
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_GetSetValue(t *testing.T) {
	st := newTestStore(t)

	err := st.SetValue("test_key", "test_value")
	require.NoError(t, err)

	value, err := st.GetValue("test_key")
	require.NoError(t, err)
	assert.Equal(t, "test_value", value)
}

func TestStore_GetValue_Missing(t *testing.T) {
	st := newTestStore(t)

	value, err := st.GetValue("absent")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestStore_SetValue_Overwrites(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.SetValue("k", "v1"))
	require.NoError(t, st.SetValue("k", "v2"))

	value, err := st.GetValue("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
}

// ==================== Snapshot Manifest Tests ====================

func TestStore_SnapshotManifests(t *testing.T) {
	st := newTestStore(t)

	meta := &models.SnapshotMeta{
		Name:        "master-AT-20260101_120000.000000-TOTAL-000042.json",
		CreatedAt:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		RecordCount: 42,
	}
	require.NoError(t, st.InsertSnapshot(meta))

	got, err := st.GetSnapshot(meta.Name)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 42, got.RecordCount)
	assert.True(t, got.CreatedAt.Equal(meta.CreatedAt))
}

func TestStore_GetSnapshot_Missing(t *testing.T) {
	st := newTestStore(t)

	got, err := st.GetSnapshot("nope.json")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Nil(t, got)
}

func TestStore_ListSnapshots_NewestFirst(t *testing.T) {
	st := newTestStore(t)

	older := &models.SnapshotMeta{
		Name:      "master-AT-20260101_120000.000000-TOTAL-000001.json",
		CreatedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), RecordCount: 1,
	}
	newer := &models.SnapshotMeta{
		Name:      "master-AT-20260102_120000.000000-TOTAL-000002.json",
		CreatedAt: time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC), RecordCount: 2,
	}
	require.NoError(t, st.InsertSnapshot(older))
	require.NoError(t, st.InsertSnapshot(newer))

	metas, err := st.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, newer.Name, metas[0].Name)
}

func TestStore_CurrentSnapshotPointer(t *testing.T) {
	st := newTestStore(t)

	current, err := st.GetCurrentSnapshot()
	require.NoError(t, err)
	assert.Empty(t, current, "No pointer before the first snapshot")

	require.NoError(t, st.SetCurrentSnapshot("master-AT-20260101_120000.000000-TOTAL-000001.json"))

	current, err = st.GetCurrentSnapshot()
	require.NoError(t, err)
	assert.Equal(t, "master-AT-20260101_120000.000000-TOTAL-000001.json", current)
}

func TestStore_DeleteSnapshot(t *testing.T) {
	st := newTestStore(t)

	meta := &models.SnapshotMeta{Name: "s.json", CreatedAt: time.Now(), RecordCount: 1}
	require.NoError(t, st.InsertSnapshot(meta))
	require.NoError(t, st.DeleteSnapshot("s.json"))

	got, err := st.GetSnapshot("s.json")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// ==================== Batch Manifest Tests ====================

func testBatchMeta(name string, at time.Time) *models.BatchMeta {
	return &models.BatchMeta{
		Name:         name,
		Strategy:     "longest",
		CreatedAt:    at,
		ExampleCount: 5,
		SampleSize:   10,
		Model:        "gpt-4.1",
	}
}

func TestStore_BatchManifests(t *testing.T) {
	st := newTestStore(t)

	at := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, st.InsertBatch(testBatchMeta("b1.json", at)))

	got, err := st.GetBatch("b1.json")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "longest", got.Strategy)
	assert.Equal(t, 10, got.SampleSize)
	assert.Nil(t, got.FoldedAt)
	assert.False(t, got.Folded())
}

func TestStore_MarkBatchFolded(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.InsertBatch(testBatchMeta("b1.json", time.Now())))

	foldedAt := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, st.MarkBatchFolded("b1.json", foldedAt))

	got, err := st.GetBatch("b1.json")
	require.NoError(t, err)
	require.True(t, got.Folded())
	assert.True(t, got.FoldedAt.Equal(foldedAt))
}

func TestStore_ListBatches_UnfoldedOnly(t *testing.T) {
	st := newTestStore(t)

	t1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	require.NoError(t, st.InsertBatch(testBatchMeta("b1.json", t1)))
	require.NoError(t, st.InsertBatch(testBatchMeta("b2.json", t2)))
	require.NoError(t, st.MarkBatchFolded("b1.json", t2))

	all, err := st.ListBatches(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unfolded, err := st.ListBatches(true)
	require.NoError(t, err)
	require.Len(t, unfolded, 1)
	assert.Equal(t, "b2.json", unfolded[0].Name)
}

func TestStore_ListBatches_OldestFirst(t *testing.T) {
	st := newTestStore(t)

	t1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, st.InsertBatch(testBatchMeta("newer.json", t1.Add(time.Hour))))
	require.NoError(t, st.InsertBatch(testBatchMeta("older.json", t1)))

	metas, err := st.ListBatches(false)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "older.json", metas[0].Name)
}

// ==================== Overwrite Audit Tests ====================

func TestStore_RecordOverwrites(t *testing.T) {
	st := newTestStore(t)

	ows := []*models.Overwrite{
		{RecordID: "aaaa0000", Label: "urgent", OldValue: 0, NewValue: 1, BatchName: "b1.json"},
		{RecordID: "bbbb1111", Label: "spam", OldValue: 1, NewValue: 0, BatchName: "b1.json"},
	}
	require.NoError(t, st.RecordOverwrites(ows))

	count, err := st.OverwriteCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_ListOverwrites_NewestFirst(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.RecordOverwrite(&models.Overwrite{
		RecordID: "first000", Label: "urgent", OldValue: 0, NewValue: 1, BatchName: "b1.json",
	}))
	require.NoError(t, st.RecordOverwrite(&models.Overwrite{
		RecordID: "second00", Label: "urgent", OldValue: 1, NewValue: 0, BatchName: "b2.json",
	}))

	entries, err := st.ListOverwrites(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second00", entries[0].RecordID)
	assert.Equal(t, "b2.json", entries[0].BatchName)
}

func TestStore_ListOverwrites_Limit(t *testing.T) {
	st := newTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, st.RecordOverwrite(&models.Overwrite{
			RecordID: "aaaa0000", Label: "urgent", OldValue: 0, NewValue: 1, BatchName: "b.json",
		}))
	}

	entries, err := st.ListOverwrites(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestStore_RecordOverwrites_Empty(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.RecordOverwrites(nil))

	count, err := st.OverwriteCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}
