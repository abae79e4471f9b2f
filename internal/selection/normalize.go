// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package selection

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalization strategy names accepted by NewNormalizer.
const (
	NormalizationBasic   = "basic"
	NormalizationFolding = "folding"
)

// Normalizer canonicalizes raw keyword text. Two terms are duplicates when
// their normalized forms are equal.
type Normalizer interface {
	Normalize(raw string) string
}

// NewNormalizer returns the normalizer registered under name. An empty name
// selects the basic normalizer.
func NewNormalizer(name string) (Normalizer, error) {
	switch name {
	case "", NormalizationBasic:
		return BasicNormalizer{}, nil
	case NormalizationFolding:
		return FoldingNormalizer{}, nil
	default:
		return nil, fmt.Errorf("unknown normalization %q", name)
	}
}

// BasicNormalizer trims, lowercases and collapses internal whitespace.
type BasicNormalizer struct{}

// Normalize implements Normalizer.
func (BasicNormalizer) Normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// FoldingNormalizer extends BasicNormalizer by stripping diacritics and
// turning punctuation and symbols into word breaks, so "Crème-Brûlée!" and
// "creme brulee" collide.
type FoldingNormalizer struct{}

// Normalize implements Normalizer.
func (FoldingNormalizer) Normalize(raw string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if unicode.IsPunct(r) || unicode.IsSymbol(r) {
				return ' '
			}
			return r
		}),
		norm.NFC,
	)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}
	return BasicNormalizer{}.Normalize(folded)
}
