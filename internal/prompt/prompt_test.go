package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkalnins/labelctl/internal/models"
)

func newTestBuilder() *Builder {
	return NewBuilder(
		[]string{"urgent", "spam"},
		map[string]string{
			"urgent": "requires same-day response",
			"spam":   "unsolicited bulk content",
		},
	)
}

func example(id, text string, urgent, spam int) models.Record {
	return models.Record{ID: id, Text: text, Labels: map[string]int{"urgent": urgent, "spam": spam}}
}

func TestSystem_CarriesDefinitions(t *testing.T) {
	b := newTestBuilder()

	system := b.System(nil, 10)
	assert.Contains(t, system, "- urgent: requires same-day response")
	assert.Contains(t, system, "- spam: unsolicited bulk content")
	assert.NotContains(t, system, "Examples:")
}

func TestSystem_IncludesExamples(t *testing.T) {
	b := newTestBuilder()
	examples := []models.Record{
		example("aaaa0000", "please respond today", 1, 0),
		example("bbbb1111", "buy cheap watches", 0, 1),
	}

	system := b.System(examples, 10)
	assert.Contains(t, system, "Examples:")
	assert.Contains(t, system, "1. Text: please respond today")
	assert.Contains(t, system, "Categories: urgent")
	assert.Contains(t, system, "2. Text: buy cheap watches")
	assert.Contains(t, system, "Categories: spam")
}

func TestSystem_KeepsMostRecentExamples(t *testing.T) {
	b := newTestBuilder()
	var examples []models.Record
	for i := 0; i < 5; i++ {
		examples = append(examples, example(string(rune('a'+i))+"0000000", "sample "+string(rune('a'+i)), 0, 0))
	}

	system := b.System(examples, 2)
	assert.NotContains(t, system, "sample a", "Oldest examples are dropped first")
	assert.Contains(t, system, "sample d")
	assert.Contains(t, system, "sample e")
}

func TestSystem_NoActiveLabels(t *testing.T) {
	b := newTestBuilder()

	system := b.System([]models.Record{example("aaaa0000", "plain text", 0, 0)}, 10)
	assert.Contains(t, system, "Categories: none")
}

func TestSystem_TruncatesLongExampleText(t *testing.T) {
	b := newTestBuilder()
	long := strings.Repeat("x", 150)

	system := b.System([]models.Record{example("aaaa0000", long, 0, 0)}, 10)
	assert.Contains(t, system, strings.Repeat("x", 100)+"...")
	assert.NotContains(t, system, strings.Repeat("x", 101))
}

func TestBaseline_EqualsSystemWithoutExamples(t *testing.T) {
	b := newTestBuilder()
	assert.Equal(t, b.System(nil, 0), b.Baseline())
}

func TestLeaveOneOut_ExcludesRecord(t *testing.T) {
	b := newTestBuilder()
	examples := []models.Record{
		example("aaaa0000", "kept example", 1, 0),
		example("bbbb1111", "held-out example", 0, 1),
	}

	system := b.LeaveOneOut(examples, "bbbb1111", 10)
	assert.Contains(t, system, "kept example")
	assert.NotContains(t, system, "held-out example")
}

func TestUser_NamesAllCategories(t *testing.T) {
	b := newTestBuilder()

	user := b.User("is this spam?")
	assert.Contains(t, user, "urgent, spam")
	assert.Contains(t, user, "Text: is this spam?")
	require.True(t, strings.HasSuffix(user, "is this spam?"))
}
