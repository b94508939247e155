// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package textvec

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTokenRunes is the shortest token kept by Tokenize.
const MinTokenRunes = 2

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Tokenize lowercases text and splits it into runs of letters, digits and
// underscores. Runs shorter than MinTokenRunes are dropped.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)

	var tokens []string
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := lower[start:end]
		if utf8.RuneCountInString(tok) >= MinTokenRunes {
			tokens = append(tokens, tok)
		}
		start = -1
	}

	for i, r := range lower {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(lower))

	return tokens
}
