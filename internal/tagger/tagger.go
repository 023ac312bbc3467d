// Package tagger turns extracted document text into descriptive keywords
// using a language model.
package tagger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrTaggingFailed wraps every oracle failure. Callers treat it as "no
// keywords" rather than as a hard error.
var ErrTaggingFailed = errors.New("keyword tagging failed")

const (
	DefaultMaxKeywords   = 20
	DefaultMaxInputChars = 30000
	DefaultTimeout       = 30 * time.Second
)

// Oracle answers a prompt with free text
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	// MaxInputChars caps how much document text goes into the prompt
	MaxInputChars int
	Timeout       time.Duration
}

type Tagger struct {
	oracle Oracle
	cfg    Config
}

// New returns a tagger asking o. A nil oracle makes every call fail with
// ErrTaggingFailed, which is how tagging is disabled.
func New(o Oracle, cfg Config) *Tagger {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Tagger{oracle: o, cfg: cfg}
}

// Tag asks the oracle for at most maxKeywords keywords describing text.
// hintName is the file name, which the model may use to infer the document
// type.
func (t *Tagger) Tag(ctx context.Context, text string, maxKeywords int, hintName string) ([]string, error) {
	if t.oracle == nil {
		return nil, fmt.Errorf("%w, no oracle configured", ErrTaggingFailed)
	}

	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	answer, err := t.oracle.Generate(ctx, BuildPrompt(truncate(text, t.cfg.MaxInputChars), maxKeywords, hintName))
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrTaggingFailed, err)
	}

	return ParseKeywords(answer, maxKeywords), nil
}

var listMarker = regexp.MustCompile(`^(\d+[.)]|[-*•])\s+`)

// ParseKeywords splits an oracle answer into keywords. Entries are separated
// by commas or newlines, list markers, quotes and trailing periods are
// stripped and duplicates are dropped case-insensitively. At most limit
// keywords are kept when limit is positive.
func ParseKeywords(answer string, limit int) []string {
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")

	out := []string{}
	seen := map[string]struct{}{}

	fields := strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == '\n' })
	for _, k := range fields {
		k = strings.TrimSpace(k)
		k = listMarker.ReplaceAllString(k, "")
		k = strings.Trim(k, "\"'`")
		k = strings.TrimRight(k, ".")
		k = strings.TrimSpace(k)

		if k == "" {
			continue
		}

		key := strings.ToLower(k)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, k)

		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}
