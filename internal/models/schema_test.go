package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLabels = []string{"urgent", "spam", "billing"}

func TestValidateLabels_Valid(t *testing.T) {
	vector := map[string]int{"urgent": 1, "spam": 0, "billing": 1}
	assert.NoError(t, ValidateLabels("abc", vector, testLabels))
}

func TestValidateLabels_Missing(t *testing.T) {
	vector := map[string]int{"urgent": 1}
	err := ValidateLabels("abc", vector, testLabels)
	require.Error(t, err)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "abc", se.RecordID)
	assert.ElementsMatch(t, []string{"spam", "billing"}, se.Missing)
}

func TestValidateLabels_Extra(t *testing.T) {
	vector := map[string]int{"urgent": 1, "spam": 0, "billing": 0, "bogus": 1}
	err := ValidateLabels("abc", vector, testLabels)
	require.Error(t, err)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"bogus"}, se.Extra)
}

func TestValidateLabels_InvalidValue(t *testing.T) {
	vector := map[string]int{"urgent": 2, "spam": 0, "billing": 0}
	err := ValidateLabels("abc", vector, testLabels)
	require.Error(t, err)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"urgent"}, se.Invalid)
}

func TestValidateRecords_DuplicateID(t *testing.T) {
	records := []Record{
		{ID: "same0000", Text: "a", Labels: map[string]int{"urgent": 0, "spam": 0, "billing": 0}},
		{ID: "same0000", Text: "b", Labels: map[string]int{"urgent": 0, "spam": 0, "billing": 0}},
	}
	err := ValidateRecords(records, testLabels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same0000")
}

func TestValidateRecords_EmptyID(t *testing.T) {
	records := []Record{
		{ID: "", Text: "a", Labels: map[string]int{"urgent": 0, "spam": 0, "billing": 0}},
	}
	assert.Error(t, ValidateRecords(records, testLabels))
}

func TestValidateRecords_Valid(t *testing.T) {
	records := []Record{
		{ID: "aaaa0000", Text: "a", Labels: map[string]int{"urgent": 1, "spam": 0, "billing": 0}},
		{ID: "bbbb1111", Text: "b", Labels: map[string]int{"urgent": 0, "spam": 1, "billing": 0}},
	}
	assert.NoError(t, ValidateRecords(records, testLabels))
}
