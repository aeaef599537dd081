// Package identity derives stable content-based identifiers for records.
//
// An identifier is the first 8 hex characters (32 bits) of the SHA-256
// digest of the NFC-normalized text. For a corpus of 10k records the
// birthday-bound collision probability is about 1.2%, and below 0.02%
// for 1k records; widen IDLength if empirical collisions appear.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// IDLength is the number of hex characters kept from the content hash.
const IDLength = 8

// ErrEmptyText is returned for text that is empty after normalization.
// Such records must be excluded upstream, never hashed as empty.
var ErrEmptyText = errors.New("cannot derive id from empty text")

// ErrInvalidUTF8 is returned for text that has no canonical byte form.
var ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

// HashText returns the stable identifier for a text. Equal text content
// always yields an equal id; the function is pure.
func HashText(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}
	normalized := norm.NFC.String(text)
	if normalized == "" {
		return "", ErrEmptyText
	}

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:IDLength], nil
}

// AssignIDs returns one identifier per text, in input order. It fails on
// the first text without a canonical byte form, naming its position.
func AssignIDs(texts []string) ([]string, error) {
	ids := make([]string, len(texts))
	for i, text := range texts {
		id, err := HashText(text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		ids[i] = id
	}
	return ids, nil
}
