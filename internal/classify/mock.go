package classify

import (
	"context"
	"strings"
)

// Mock is a Classifier for testing. Responses are matched by substring of
// the user message (each user prompt embeds the record text); unmatched
// requests receive Default.
type Mock struct {
	// Responses maps a text fragment to the vector returned when the
	// user message contains it.
	Responses map[string]map[string]int
	// Default is returned when no Responses entry matches.
	Default map[string]int
	// Err, when set, makes every call fail.
	Err error
	// Calls records every user message received.
	Calls []string
	// ModelName is reported by Model; defaults to "mock".
	ModelName string
}

// Verify that *Mock implements Classifier at compile time
var _ Classifier = (*Mock)(nil)

// Classify returns the configured vector for the request.
func (m *Mock) Classify(_ context.Context, _ string, user string) (map[string]int, error) {
	m.Calls = append(m.Calls, user)
	if m.Err != nil {
		return nil, m.Err
	}

	for fragment, vector := range m.Responses {
		if strings.Contains(user, fragment) {
			return copyVector(vector), nil
		}
	}
	return copyVector(m.Default), nil
}

// Model returns the mock model name.
func (m *Mock) Model() string {
	if m.ModelName == "" {
		return "mock"
	}
	return m.ModelName
}

func copyVector(v map[string]int) map[string]int {
	out := make(map[string]int, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
