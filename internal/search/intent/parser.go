// Package intent turns a free-text repair query into a ParsedSearchIntent.
// Parsing is pure and total: any input, including the empty string, yields a valid intent.
package intent

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"repairer-search/internal/models"
	"repairer-search/internal/search/textnorm"
)

// Confidence increments per detected field.
const (
	ConfidenceBrand      = 0.20
	ConfidenceModel      = 0.15
	ConfidenceRepairType = 0.20
	ConfidenceSymptom    = 0.15
	ConfidenceLocation   = 0.15
	ConfidenceCriteria   = 0.10
	ConfidenceDevice     = 0.05

	// QuickSearchConfidence is the fixed confidence of intents built without parsing.
	QuickSearchConfidence = 0.5

	MaxKeywords    = 10
	maxCityWords   = 3
	minCityRunes   = 3
	minKeywordRune = 3
)

// Parser is stateless and safe for concurrent use.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse never fails; unrecognised text only lowers the confidence.
func (p *Parser) Parse(query string) models.ParsedSearchIntent {
	normalized := textnorm.Normalize(query)
	folded := textnorm.Fold(normalized)

	intent := models.ParsedSearchIntent{
		OriginalQuery: query,
		Keywords:      extractKeywords(normalized),
	}
	if normalized == "" {
		return intent
	}

	if b, ok := lookup(brands, folded); ok {
		intent.Brand = b.Key
	}
	intent.Model = detectModel(folded, intent.Brand)
	if r, ok := lookup(repairTypes, folded); ok {
		intent.RepairType = r.Key
	}
	if s, ok := lookup(symptoms, folded); ok {
		intent.Symptom = s.Key
	}
	intent.Location = detectLocation(normalized)
	intent.Criteria = detectCriteria(folded)
	if d, ok := lookup(deviceTypes, folded); ok {
		intent.DeviceType = d.Key
	}

	intent.Confidence = scoreConfidence(intent)
	return intent
}

// FromKeywords builds a fixed-confidence intent from raw terms and an optional city.
func FromKeywords(term, city string) models.ParsedSearchIntent {
	intent := models.ParsedSearchIntent{
		OriginalQuery: term,
		Keywords:      extractKeywords(textnorm.Normalize(term)),
		Confidence:    QuickSearchConfidence,
	}
	if city = strings.TrimSpace(city); city != "" {
		intent.Location = &models.SearchLocation{City: textnorm.TitleCase(strings.ToLower(city))}
	}
	return intent
}

// ForNearby builds a proximity intent from optional brand and repair type filters.
func ForNearby(brand, repairType string) models.ParsedSearchIntent {
	intent := models.ParsedSearchIntent{
		Brand:      strings.ToLower(strings.TrimSpace(brand)),
		RepairType: strings.ToLower(strings.TrimSpace(repairType)),
		Criteria:   models.SearchCriteria{Nearest: true},
		Keywords:   []string{},
	}
	intent.Confidence = scoreConfidence(intent)
	return intent
}

func scoreConfidence(intent models.ParsedSearchIntent) float64 {
	score := 0.0
	if intent.Brand != "" {
		score += ConfidenceBrand
	}
	if intent.Model != "" {
		score += ConfidenceModel
	}
	if intent.RepairType != "" {
		score += ConfidenceRepairType
	}
	if intent.Symptom != "" {
		score += ConfidenceSymptom
	}
	if intent.Location != nil {
		score += ConfidenceLocation
	}
	if intent.Criteria.Any() {
		score += ConfidenceCriteria
	}
	if intent.DeviceType != "" {
		score += ConfidenceDevice
	}
	score = math.Round(score*100) / 100
	return math.Min(score, 1.0)
}

func detectModel(folded, brand string) string {
	order := defaultModelOrder
	if brand != "" {
		order = []string{brand}
	}
	for _, key := range order {
		for _, pattern := range modelPatterns[key] {
			if m := pattern.re.FindString(folded); m != "" {
				return strings.TrimSpace(m)
			}
		}
	}
	return ""
}

func detectCriteria(folded string) models.SearchCriteria {
	has := func(terms []string) bool {
		_, ok := textnorm.ContainsAny(folded, terms)
		return ok
	}
	return models.SearchCriteria{
		Urgent:    has(urgentTerms),
		Cheapest:  has(cheapestTerms),
		BestRated: has(bestRatedTerms),
		Nearest:   has(nearestTerms),
		Certified: has(certifiedTerms),
		OpenNow:   has(openNowTerms),
	}
}

func detectLocation(normalized string) *models.SearchLocation {
	loc := &models.SearchLocation{}

	postal := postalCodeRe.FindStringSubmatchIndex(normalized)
	if postal != nil {
		loc.PostalCode = normalized[postal[2]:postal[3]]
		loc.Department = loc.PostalCode[:2]
	}
	loc.City = detectCity(normalized, postal)

	if loc.City == "" && loc.PostalCode == "" {
		return nil
	}
	return loc
}

// detectCity tries, in order: "<preposition> <city>", "<city> <postal>", "<postal> <city>".
func detectCity(normalized string, postal []int) string {
	words := tokenize(normalized)
	for i := len(words) - 2; i >= 0; i-- {
		if !cityPrepositions[words[i]] {
			continue
		}
		if city := acceptCity(collectForward(words[i+1:])); city != "" {
			return city
		}
	}

	if postal == nil {
		return ""
	}
	if city := acceptCity(collectBackward(tokenize(normalized[:postal[0]]))); city != "" {
		return city
	}
	return acceptCity(collectForward(tokenize(normalized[postal[1]:])))
}

func collectForward(words []string) []string {
	var out []string
	for j := 0; j < len(words) && len(out) < maxCityWords; j++ {
		if digitsRe.MatchString(words[j]) || startsWithKeyword(words, j) {
			break
		}
		out = append(out, words[j])
	}
	for len(out) > 0 && stopWords[textnorm.Fold(out[len(out)-1])] {
		out = out[:len(out)-1]
	}
	return out
}

func collectBackward(words []string) []string {
	var out []string
	for j := len(words) - 1; j >= 0 && len(out) < maxCityWords; j-- {
		w := textnorm.Fold(words[j])
		if digitsRe.MatchString(w) || keywordTerms[w] || stopWords[w] || cityPrepositions[words[j]] {
			break
		}
		out = append([]string{words[j]}, out...)
	}
	return out
}

func acceptCity(words []string) string {
	if len(words) == 0 {
		return ""
	}
	candidate := strings.Join(words, " ")
	if utf8.RuneCountInString(candidate) < minCityRunes || keywordTerms[textnorm.Fold(candidate)] {
		return ""
	}
	return textnorm.TitleCase(candidate)
}

// startsWithKeyword reports whether a dictionary term begins at words[j].
func startsWithKeyword(words []string, j int) bool {
	rest := textnorm.Fold(strings.Join(words[j:], " "))
	for term := range keywordTerms {
		if strings.HasPrefix(rest, term) && (len(rest) == len(term) || rest[len(term)] == ' ') {
			return true
		}
	}
	return false
}

func extractKeywords(normalized string) []string {
	keywords := make([]string, 0, MaxKeywords)
	for _, w := range tokenize(normalized) {
		if len(keywords) == MaxKeywords {
			break
		}
		if utf8.RuneCountInString(w) < minKeywordRune || stopWords[textnorm.Fold(w)] {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// tokenize splits on whitespace and trims punctuation at token edges.
func tokenize(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) && r != '-' && r != '\''
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
