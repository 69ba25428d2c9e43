// Package cache stores generated answers keyed by company and question so
// repeated questions skip the model call.
package cache

import (
	"context"
	"strings"
)

// Key identifies a cached answer.
type Key struct {
	Company  string
	Question string
}

// NewKey builds a Key with the question lowercased and trimmed, so questions
// differing only in case or surrounding whitespace share an entry.
func NewKey(company, question string) Key {
	return Key{
		Company:  strings.TrimSpace(company),
		Question: strings.ToLower(strings.TrimSpace(question)),
	}
}

// Cache is an answer store. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key Key) (string, bool, error)
	Set(ctx context.Context, key Key, answer string) error
}
