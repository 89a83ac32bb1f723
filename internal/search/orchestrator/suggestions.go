package orchestrator

import (
	"strings"
	"unicode/utf8"

	"repairer-search/internal/models"
	"repairer-search/internal/search/intent"
	"repairer-search/internal/search/textnorm"
)

const (
	MaxSuggestions      = 5
	minPartialRunes     = 2
	fewResultsThreshold = 5
	neighboursSuggested = 2
)

const (
	msgWidenSearch = "Élargissez votre recherche en retirant certains critères"
	msgWidenZone   = "Élargissez la zone de recherche pour voir plus de réparateurs"
)

// neighbours lists nearby cities for the largest French cities, keyed by folded name.
var neighbours = map[string][]string{
	"paris":       {"Boulogne-Billancourt", "Saint-Denis", "Montreuil"},
	"lyon":        {"Villeurbanne", "Vénissieux"},
	"marseille":   {"Aix-en-Provence", "Aubagne"},
	"toulouse":    {"Blagnac", "Colomiers"},
	"nice":        {"Cannes", "Antibes"},
	"nantes":      {"Saint-Herblain", "Rezé"},
	"strasbourg":  {"Schiltigheim", "Illkirch-Graffenstaden"},
	"montpellier": {"Lattes", "Castelnau-le-Lez"},
	"bordeaux":    {"Mérignac", "Pessac"},
	"lille":       {"Roubaix", "Villeneuve-d'Ascq"},
	"rennes":      {"Cesson-Sévigné", "Saint-Grégoire"},
	"grenoble":    {"Échirolles", "Saint-Martin-d'Hères"},
}

// Neighbours returns the cities next to city, or nil when city is not in the table.
func Neighbours(city string) []string {
	return neighbours[textnorm.Fold(city)]
}

// BuildSuggestions derives follow-up hints from the intent and the number of results.
func BuildSuggestions(in models.ParsedSearchIntent, results int) []string {
	var out []string

	switch {
	case results == 0:
		out = append(out, msgWidenSearch)
		if in.Brand != "" {
			out = append(out, "Essayez tous les réparateurs "+intent.BrandLabel(in.Brand))
		}
		if in.Location != nil && in.Location.City != "" {
			near := Neighbours(in.Location.City)
			if len(near) > neighboursSuggested {
				near = near[:neighboursSuggested]
			}
			for _, city := range near {
				out = append(out, "Essayez à "+city)
			}
		}
	case results < fewResultsThreshold:
		out = append(out, msgWidenZone)
	}

	if in.Brand != "" && in.RepairType == "" {
		label := intent.BrandLabel(in.Brand)
		out = append(out,
			"Réparation "+intent.RepairTypeLabel("ecran")+" "+label,
			"Réparation "+intent.RepairTypeLabel("batterie")+" "+label,
		)
	}
	return out
}

// popularDevices extend the brand catalogue with product names users type first.
var popularDevices = []string{"iPhone", "iPad", "MacBook", "Galaxy", "Pixel", "PlayStation", "Switch", "Xbox"}

type suggestion struct {
	text   string
	folded string
}

var catalogue = buildCatalogue()

// buildCatalogue lists "<repair> <device>" phrases first, then bare repair types and brands.
func buildCatalogue() []suggestion {
	var texts []string
	repairs := []string{intent.RepairTypeLabel("ecran"), intent.RepairTypeLabel("batterie")}
	for _, repair := range repairs {
		for _, device := range popularDevices {
			texts = append(texts, repair+" "+device)
		}
	}
	for _, key := range intent.RepairTypes() {
		texts = append(texts, "réparation "+intent.RepairTypeLabel(key))
	}
	for _, key := range intent.Brands() {
		texts = append(texts, "réparation "+intent.BrandLabel(key))
	}

	seen := make(map[string]bool, len(texts))
	out := make([]suggestion, 0, len(texts))
	for _, t := range texts {
		folded := textnorm.Fold(t)
		if seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, suggestion{text: t, folded: folded})
	}
	return out
}

// GetSuggestions autocompletes partialQuery from the static catalogue.
// Phrases starting with the input rank before phrases with a later word starting with it.
func (o *Orchestrator) GetSuggestions(partialQuery string) []string {
	return Complete(partialQuery)
}

// Complete is GetSuggestions without an orchestrator.
func Complete(partialQuery string) []string {
	partial := textnorm.Fold(partialQuery)
	if utf8.RuneCountInString(partial) < minPartialRunes {
		return []string{}
	}

	var prefix, inner []string
	for _, s := range catalogue {
		switch {
		case strings.HasPrefix(s.folded, partial):
			prefix = append(prefix, s.text)
		case strings.Contains(s.folded, " "+partial):
			inner = append(inner, s.text)
		}
	}

	out := append(prefix, inner...)
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	if out == nil {
		return []string{}
	}
	return out
}
