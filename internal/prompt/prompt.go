// Package prompt builds classifier prompts: a system message carrying the
// label definitions plus progressive few-shot examples drawn from the
// master snapshot, and the per-record user messages.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mkalnins/labelctl/internal/models"
)

// exampleTextLimit caps how much of an example's text is quoted in the
// system message.
const exampleTextLimit = 100

// Builder renders prompts for a fixed label schema.
type Builder struct {
	labels      []string
	definitions map[string]string
}

// NewBuilder creates a prompt builder. labels gives schema order;
// definitions maps label name to its description.
func NewBuilder(labels []string, definitions map[string]string) *Builder {
	return &Builder{labels: labels, definitions: definitions}
}

// System renders the classification system message with up to maxExamples
// few-shot examples. When the pool is larger, the most recent examples are
// kept — the master snapshot appends corrections at the end.
func (b *Builder) System(examples []models.Record, maxExamples int) string {
	var sb strings.Builder
	sb.WriteString("You are a precise multi-label text classifier. ")
	sb.WriteString("Assign each category below a value of 1 if it applies to the text, otherwise 0.\n\n")
	sb.WriteString("Categories:\n")
	for _, name := range b.labels {
		fmt.Fprintf(&sb, "- %s: %s\n", name, b.definitions[name])
	}

	if len(examples) > maxExamples {
		examples = examples[len(examples)-maxExamples:]
	}
	if len(examples) > 0 {
		sb.WriteString("\nExamples:\n")
		for i, ex := range examples {
			fmt.Fprintf(&sb, "%d. Text: %s\n   Categories: %s\n\n",
				i+1, truncate(ex.Text, exampleTextLimit), b.activeLabels(ex))
		}
	}

	return sb.String()
}

// Baseline renders the system message without few-shot examples.
func (b *Builder) Baseline() string {
	return b.System(nil, 0)
}

// LeaveOneOut renders the system message with one record excluded from the
// example pool, for held-out evaluation of that record.
func (b *Builder) LeaveOneOut(examples []models.Record, excludeID string, maxExamples int) string {
	kept := make([]models.Record, 0, len(examples))
	for _, ex := range examples {
		if ex.ID != excludeID {
			kept = append(kept, ex)
		}
	}
	return b.System(kept, maxExamples)
}

// User renders the per-record classification request.
func (b *Builder) User(text string) string {
	return fmt.Sprintf(
		"Classify the following text. Respond with a JSON object mapping each category (%s) to 0 or 1.\n\nText: %s",
		strings.Join(b.labels, ", "), text)
}

// activeLabels lists the label names set to 1 on a record, or "none".
func (b *Builder) activeLabels(r models.Record) string {
	var active []string
	for _, name := range b.labels {
		if r.Labels[name] == 1 {
			active = append(active, name)
		}
	}
	if len(active) == 0 {
		return "none"
	}
	return strings.Join(active, ", ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
