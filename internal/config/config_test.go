package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLabels = []Label{
	{Name: "urgent", Description: "requires same-day response"},
	{Name: "spam", Description: "unsolicited bulk content"},
}

func TestInitializeAt(t *testing.T) {
	dir := t.TempDir()

	cfg, err := InitializeAt(dir, testLabels)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, LabelctlDir), cfg.Path())
	assert.DirExists(t, cfg.SnapshotsPath())
	assert.DirExists(t, cfg.BatchesPath())
	assert.DirExists(t, cfg.EvaluationsPath())
	assert.FileExists(t, filepath.Join(cfg.Path(), ConfigFile))
}

func TestInitializeAt_AlreadyExists(t *testing.T) {
	dir := t.TempDir()
	_, err := InitializeAt(dir, testLabels)
	require.NoError(t, err)

	_, err = InitializeAt(dir, testLabels)
	assert.Error(t, err)
}

func TestInitializeAt_InvalidLabels_CleansUp(t *testing.T) {
	dir := t.TempDir()
	_, err := InitializeAt(dir, []Label{{Name: "id"}})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, LabelctlDir))
	assert.True(t, os.IsNotExist(statErr), "Failed init should leave no directory behind")
}

func TestLoadFrom_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := InitializeAt(dir, testLabels)
	require.NoError(t, err)

	loaded, err := LoadFrom(cfg.Path())
	require.NoError(t, err)

	assert.Equal(t, []string{"urgent", "spam"}, loaded.LabelNames())
	assert.Equal(t, "requires same-day response", loaded.Definitions()["urgent"])
}

func TestLoadFrom_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := InitializeAt(dir, testLabels)
	require.NoError(t, err)

	loaded, err := LoadFrom(cfg.Path())
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", loaded.Classifier.Model)
	assert.Equal(t, "OPENAI_API_KEY", loaded.Classifier.APIKeyEnv)
	assert.Equal(t, 10, loaded.Batch.Size)
	assert.Equal(t, "longest", loaded.Batch.Strategy)
	assert.Equal(t, int64(42), loaded.Batch.RandomSeed)
	assert.Equal(t, 3, loaded.Retention.KeepBatches)
}

func TestValidate_DuplicateLabel(t *testing.T) {
	dir := t.TempDir()
	_, err := InitializeAt(dir, []Label{{Name: "urgent"}, {Name: "urgent"}})
	assert.Error(t, err)
}

func TestValidate_ReservedLabelName(t *testing.T) {
	for _, name := range []string{"id", "text"} {
		dir := t.TempDir()
		_, err := InitializeAt(dir, []Label{{Name: name}})
		assert.Error(t, err, "label name %q must be rejected", name)
	}
}

func TestValidate_NoLabels(t *testing.T) {
	dir := t.TempDir()
	_, err := InitializeAt(dir, nil)
	assert.Error(t, err)
}

func TestLabelNames_PreservesSchemaOrder(t *testing.T) {
	dir := t.TempDir()
	cfg, err := InitializeAt(dir, []Label{{Name: "zeta"}, {Name: "alpha"}, {Name: "mid"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, cfg.LabelNames())
}
