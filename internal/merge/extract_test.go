package merge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkalnins/labelctl/internal/batch"
	"github.com/mkalnins/labelctl/internal/export"
	"github.com/mkalnins/labelctl/internal/models"
)

func row(id, text string, urgent, spam int) export.Row {
	return export.Row{ID: id, Text: text, Labels: map[string]int{"urgent": urgent, "spam": spam}}
}

func TestDiff_UneditedExportIsEmpty(t *testing.T) {
	original := []models.Record{
		rec("aaaa0000", "first", 1, 0),
		rec("bbbb1111", "second", 0, 1),
	}
	rows := []export.Row{
		row("aaaa0000", "first", 1, 0),
		row("bbbb1111", "second", 0, 1),
	}

	cs := Diff(original, rows, testLabels)
	assert.Empty(t, cs.Changes)
	assert.Zero(t, cs.SkippedUnknown)
	assert.Zero(t, cs.TextEdited)
}

func TestDiff_KeepsOnlyChangedRows(t *testing.T) {
	original := []models.Record{
		rec("aaaa0000", "first", 1, 0),
		rec("bbbb1111", "second", 0, 1),
	}
	rows := []export.Row{
		row("aaaa0000", "first", 1, 0),
		row("bbbb1111", "second", 1, 1),
	}

	cs := Diff(original, rows, testLabels)
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, "bbbb1111", cs.Changes[0].ID)
	assert.Equal(t, 1, cs.Changes[0].Labels["urgent"])
}

func TestDiff_SkipsUnknownIDs(t *testing.T) {
	original := []models.Record{rec("aaaa0000", "first", 0, 0)}
	rows := []export.Row{
		row("aaaa0000", "first", 0, 0),
		row("ffffffff", "added by hand in the sheet", 1, 1),
	}

	cs := Diff(original, rows, testLabels)
	assert.Empty(t, cs.Changes)
	assert.Equal(t, 1, cs.SkippedUnknown, "Spreadsheet-invented rows cannot be reconciled")
}

func TestDiff_TextEditsFlaggedAndIgnored(t *testing.T) {
	original := []models.Record{rec("aaaa0000", "original text", 0, 0)}
	rows := []export.Row{row("aaaa0000", "reworded text", 1, 0)}

	cs := Diff(original, rows, testLabels)
	assert.Equal(t, 1, cs.TextEdited)
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, "original text", cs.Changes[0].Text,
		"The change carries the original text, never the edited cell")
}

func TestDiff_RowOrderIrrelevant(t *testing.T) {
	original := []models.Record{
		rec("aaaa0000", "first", 0, 0),
		rec("bbbb1111", "second", 0, 0),
	}
	// Sheet was re-sorted by the reviewer
	rows := []export.Row{
		row("bbbb1111", "second", 0, 1),
		row("aaaa0000", "first", 0, 0),
	}

	cs := Diff(original, rows, testLabels)
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, "bbbb1111", cs.Changes[0].ID)
}

func TestExtractChanges_EndToEnd(t *testing.T) {
	e := newTestEngine(t)

	// Establish a snapshot, export it, edit one label, extract
	name := recordBatch(t, e,
		rec("aaaa0000", "please respond today", 0, 0),
		rec("bbbb1111", "cheap watches for sale", 0, 0),
	)
	_, err := e.FoldIn(name)
	require.NoError(t, err)

	records, _, err := e.Snapshots.Latest()
	require.NoError(t, err)

	csvPath := filepath.Join(t.TempDir(), "review.csv")
	require.NoError(t, export.WriteCSV(csvPath, records, testLabels, export.Options{}))

	edited := readFile(t, csvPath)
	edited = replaceOnce(t, edited, "aaaa0000,please respond today,0,0", "aaaa0000,please respond today,1,0")
	require.NoError(t, os.WriteFile(csvPath, []byte(edited), 0644))

	cs, meta, result, err := e.ExtractChanges(csvPath, true)
	require.NoError(t, err)
	require.Len(t, cs.Changes, 1)
	require.NotNil(t, meta)
	assert.Equal(t, string(batch.StrategyEdits), meta.Strategy)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Updated)

	final, _, err := e.Snapshots.Latest()
	require.NoError(t, err)
	require.Len(t, final, 2)
	assert.Equal(t, 1, final[0].Labels["urgent"], "Correction landed in the snapshot")
	assert.Equal(t, 0, final[1].Labels["urgent"], "Untouched record unchanged")
}

func TestExtractChanges_NoChangesNoBatch(t *testing.T) {
	e := newTestEngine(t)

	name := recordBatch(t, e, rec("aaaa0000", "sample", 1, 0))
	_, err := e.FoldIn(name)
	require.NoError(t, err)

	records, _, err := e.Snapshots.Latest()
	require.NoError(t, err)

	csvPath := filepath.Join(t.TempDir(), "review.csv")
	require.NoError(t, export.WriteCSV(csvPath, records, testLabels, export.Options{}))

	cs, meta, result, err := e.ExtractChanges(csvPath, true)
	require.NoError(t, err)
	assert.Empty(t, cs.Changes)
	assert.Nil(t, meta, "An unedited export must not create a batch")
	assert.Nil(t, result)

	batches, err := e.Batches.List(true)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func replaceOnce(t *testing.T, s, old, new string) string {
	t.Helper()
	require.Contains(t, s, old)
	return strings.Replace(s, old, new, 1)
}
