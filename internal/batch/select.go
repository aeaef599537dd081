// Package batch tracks provisional prediction batches awaiting human
// correction: selection of records to label, immutable batch artifacts,
// and retention.
package batch

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/mkalnins/labelctl/internal/models"
)

// Strategy selects which unlabeled records enter a batch.
type Strategy string

const (
	StrategyLongest  Strategy = "longest"
	StrategyShortest Strategy = "shortest"
	StrategyMedium   Strategy = "medium"
	StrategyRandom   Strategy = "random"

	// StrategyEdits tags change batches recovered from an edited export.
	StrategyEdits Strategy = "edits"

	// StrategyBulk tags sub-batches flushed by the bulk classification runner.
	StrategyBulk Strategy = "bulk"
)

// ParseStrategy validates a strategy name. "length" is accepted as an
// alias of "longest".
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyLongest, StrategyShortest, StrategyMedium, StrategyRandom:
		return Strategy(s), nil
	}
	if s == "length" {
		return StrategyLongest, nil
	}
	return "", fmt.Errorf("unknown selection strategy %q (longest, shortest, medium, random)", s)
}

// Select filters out already-labeled records, then picks up to size records
// by the given strategy. Requesting more than available returns all
// available; no unlabeled records remaining yields an empty result, not an
// error. The input slice is not modified. Only selection strategies are
// accepted — artifact tags like "edits" or "bulk" are an error, never a
// silent fallback.
func Select(records []models.Record, labeledIDs map[string]bool, size int, strategy Strategy, seed int64) ([]models.Record, error) {
	switch strategy {
	case StrategyLongest, StrategyShortest, StrategyMedium, StrategyRandom:
	default:
		return nil, fmt.Errorf("strategy %q cannot select records", strategy)
	}

	unlabeled := make([]models.Record, 0, len(records))
	for _, r := range records {
		if !labeledIDs[r.ID] {
			unlabeled = append(unlabeled, r)
		}
	}
	if len(unlabeled) == 0 || size <= 0 {
		return nil, nil
	}
	if size > len(unlabeled) {
		size = len(unlabeled)
	}

	switch strategy {
	case StrategyLongest:
		sort.SliceStable(unlabeled, func(i, j int) bool {
			return textLen(unlabeled[i]) > textLen(unlabeled[j])
		})
	case StrategyShortest:
		sort.SliceStable(unlabeled, func(i, j int) bool {
			return textLen(unlabeled[i]) < textLen(unlabeled[j])
		})
	case StrategyMedium:
		mean := meanLength(unlabeled)
		sort.SliceStable(unlabeled, func(i, j int) bool {
			return math.Abs(float64(textLen(unlabeled[i]))-mean) < math.Abs(float64(textLen(unlabeled[j]))-mean)
		})
	case StrategyRandom:
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(unlabeled), func(i, j int) {
			unlabeled[i], unlabeled[j] = unlabeled[j], unlabeled[i]
		})
	}

	return unlabeled[:size], nil
}

func textLen(r models.Record) int {
	return len([]rune(r.Text))
}

func meanLength(records []models.Record) float64 {
	var total int
	for _, r := range records {
		total += textLen(r)
	}
	return float64(total) / float64(len(records))
}
