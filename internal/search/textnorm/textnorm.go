// Package textnorm holds the small text helpers shared by the intent parser and the matcher.
package textnorm

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ShortTermRunes is the alias length at or below which a term must match a whole word.
const ShortTermRunes = 4

var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		)
	},
}

var apostrophes = strings.NewReplacer("’", "'", "`", "'", "‘", "'")

// Normalize lowercases and trims s. Accents are kept.
func Normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(apostrophes.Replace(s)))
}

// Fold lowercases s and strips diacritics: "Écran Cassé" -> "ecran casse".
func Fold(s string) string {
	if s == "" {
		return ""
	}
	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, Normalize(s))
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return Normalize(s)
	}
	return out
}

// ContainsTerm reports whether term occurs in text. Both must already be folded.
// Short terms only match on word boundaries.
func ContainsTerm(text, term string) bool {
	if term == "" {
		return false
	}
	if utf8.RuneCountInString(term) > ShortTermRunes {
		return strings.Contains(text, term)
	}
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		if isBoundaryBefore(text, start) && isBoundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

// ContainsAny returns the first term of terms found in text.
func ContainsAny(text string, terms []string) (string, bool) {
	for _, term := range terms {
		if ContainsTerm(text, term) {
			return term, true
		}
	}
	return "", false
}

// TitleCase upper-cases the first rune of each whitespace-separated word and
// leaves the rest untouched: "aix-en-provence" -> "Aix-en-provence".
func TitleCase(s string) string {
	words := strings.Fields(s)
	upper := cases.Upper(language.French)
	for i, w := range words {
		_, size := utf8.DecodeRuneInString(w)
		words[i] = upper.String(w[:size]) + w[size:]
	}
	return strings.Join(words, " ")
}

func isBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func isBoundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
