// Package classify is the boundary to the external classifier service.
// Given a text and the closed label set, the service returns a binary
// label vector covering exactly that set; anything else is a schema
// violation and is rejected, never coerced.
package classify

import (
	"context"
)

// Classifier is the contract for a label-vector classifier.
// Implementations must attach results to the request they answer —
// callers pair responses with records by id, never by position.
type Classifier interface {
	// Classify returns the label vector for one text, given prebuilt
	// system and user messages.
	Classify(ctx context.Context, system, user string) (map[string]int, error)

	// Model identifies the underlying model, for batch artifact naming.
	Model() string
}
