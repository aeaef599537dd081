package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashText_Deterministic(t *testing.T) {
	id1, err := HashText("the quick brown fox")
	require.NoError(t, err)
	id2, err := HashText("the quick brown fox")
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "Same text should produce same id")
	assert.Len(t, id1, IDLength)
}

func TestHashText_DifferentTexts(t *testing.T) {
	id1, err := HashText("first sample")
	require.NoError(t, err)
	id2, err := HashText("second sample")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestHashText_UnicodeNormalization(t *testing.T) {
	// "é" composed vs decomposed must hash identically
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	id1, err := HashText(composed)
	require.NoError(t, err)
	id2, err := HashText(decomposed)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "NFC-equivalent texts should share an id")
}

func TestHashText_EmptyText(t *testing.T) {
	_, err := HashText("")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestHashText_InvalidUTF8(t *testing.T) {
	_, err := HashText(string([]byte{0xff, 0xfe}))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestHashText_NonLatinText(t *testing.T) {
	id, err := HashText("Steidzams pieprasījums — lūdzu atbildēt šodien")
	require.NoError(t, err)
	assert.Len(t, id, IDLength)
}

func TestAssignIDs(t *testing.T) {
	ids, err := AssignIDs([]string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	want, _ := HashText("beta")
	assert.Equal(t, want, ids[1])
}

func TestAssignIDs_ReportsPosition(t *testing.T) {
	_, err := AssignIDs([]string{"alpha", ""})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Contains(t, err.Error(), "text 1", "Error should name the failing position")
}
