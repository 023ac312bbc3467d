package validators

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrNoKeywords      = errors.New("no keywords provided")
	ErrKeywordTooLong  = errors.New("keyword is too long")
	ErrTooManyKeywords = errors.New("too many keywords")
)

const (
	maxKeywordLen = 100
	maxKeywords   = 50
)

// KeywordsValidator rejects keyword lists that can't be merged. At least one
// entry must be non-blank.
func KeywordsValidator(keywords []string) error {
	if len(keywords) > maxKeywords {
		return ErrTooManyKeywords
	}

	blank := true
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}

		blank = false
		if utf8.RuneCountInString(k) > maxKeywordLen {
			return ErrKeywordTooLong
		}
	}

	if blank {
		return ErrNoKeywords
	}

	return nil
}
