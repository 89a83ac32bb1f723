package intent

import (
	"strings"
	"sync"
	"unicode/utf8"

	"repairer-search/internal/search/textnorm"

	"github.com/xrash/smetrics"
)

const minCorrectableRunes = 5

var (
	vocabularyOnce sync.Once
	vocabulary     []string
	vocabularySet  map[string]bool
)

// spellingVocabulary holds the single-word brand and repair-type aliases, folded.
func spellingVocabulary() ([]string, map[string]bool) {
	vocabularyOnce.Do(func() {
		vocabularySet = make(map[string]bool)
		for _, table := range [][]entry{brands, repairTypes} {
			for _, e := range table {
				for _, alias := range e.Aliases {
					if strings.ContainsAny(alias, " -'") || utf8.RuneCountInString(alias) < minCorrectableRunes || vocabularySet[alias] {
						continue
					}
					vocabularySet[alias] = true
					vocabulary = append(vocabulary, alias)
				}
			}
		}
	})
	return vocabulary, vocabularySet
}

// Correct returns the dictionary term closest to word when word looks like a typo of it.
// Words up to 7 letters tolerate one edit, longer words two.
func Correct(word string) (string, bool) {
	folded := textnorm.Fold(word)
	if utf8.RuneCountInString(folded) < minCorrectableRunes {
		return "", false
	}
	vocab, known := spellingVocabulary()
	if known[folded] || keywordTerms[folded] {
		return "", false
	}

	limit := 1
	if len(folded) >= 8 {
		limit = 2
	}

	best, bestDist := "", limit+1
	for _, term := range vocab {
		d := smetrics.WagnerFischer(folded, term, 1, 1, 1)
		if d < bestDist {
			best, bestDist = term, d
		}
	}
	return best, best != ""
}

// DidYouMean rewrites query with every correctable word replaced.
// It returns "" when nothing was corrected.
func DidYouMean(query string) string {
	words := tokenize(textnorm.Normalize(query))
	changed := false
	for i, w := range words {
		if fixed, ok := Correct(w); ok {
			words[i] = fixed
			changed = true
		}
	}
	if !changed {
		return ""
	}
	return strings.Join(words, " ")
}
