// Package tokenizer estimates token counts when a provider does not report
// usage.
package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

// CharsPerToken is the fixed ratio used by the character estimator.
const CharsPerToken = 4

// Estimator counts tokens in text.
type Estimator interface {
	Count(text string) int
}

// EstimateTokens returns ceil(characters/4), counting characters as runes.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Chars is the character-ratio Estimator.
type Chars struct{}

// Count implements Estimator.
func (Chars) Count(text string) int { return EstimateTokens(text) }

// Tiktoken counts with the GPT-4 BPE encoding and falls back to the
// character ratio if encoding fails.
type Tiktoken struct {
	codec tokenizer.Codec
}

// NewTiktoken loads the GPT-4 codec.
func NewTiktoken() (*Tiktoken, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec: %w", err)
	}
	return &Tiktoken{codec: codec}, nil
}

// Count implements Estimator.
func (t *Tiktoken) Count(text string) int {
	if t == nil || t.codec == nil {
		return EstimateTokens(text)
	}
	n, err := t.codec.Count(text)
	if err != nil {
		return EstimateTokens(text)
	}
	return n
}

// New returns the estimator named by kind: "tiktoken" or anything else for
// the character ratio.
func New(kind string) (Estimator, error) {
	if kind == "tiktoken" {
		return NewTiktoken()
	}
	return Chars{}, nil
}
