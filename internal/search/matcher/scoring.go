package matcher

import (
	"fmt"
	"math"
	"strings"

	"repairer-search/internal/models"
	"repairer-search/internal/search/intent"
	"repairer-search/internal/search/textnorm"
)

// Final score weights. WeightAvailability is reserved: no availability signal
// exists yet, so it is not part of MatchScore.
const (
	WeightRelevance    = 0.35
	WeightDistance     = 0.25
	WeightRating       = 0.20
	WeightLevel        = 0.15
	WeightAvailability = 0.05
)

const (
	relevanceBrand    = 0.4
	relevanceModel    = 0.3
	relevanceRepair   = 0.3
	relevanceKeywords = 0.2
	relevanceFloor    = 0.2

	// distanceScaleKm is fixed and independent of MatchOptions.MaxDistanceKm.
	distanceScaleKm = 50.0

	maxRating = 5.0
	maxLevel  = 3
)

// RelevanceScore measures how well specialties and services cover the intent.
func RelevanceScore(in models.ParsedSearchIntent, specialties, services []string) float64 {
	corpus := make([]string, 0, len(specialties)+len(services))
	for _, s := range specialties {
		corpus = append(corpus, textnorm.Fold(s))
	}
	for _, s := range services {
		corpus = append(corpus, textnorm.Fold(s))
	}

	score := 0.0
	if in.Brand != "" && anyContains(corpus, textnorm.Fold(in.Brand)) {
		score += relevanceBrand
	}
	if in.Model != "" && anyContains(corpus, textnorm.Fold(in.Model)) {
		score += relevanceModel
	}
	if in.RepairType != "" && anyContains(corpus, textnorm.Fold(in.RepairType)) {
		score += relevanceRepair
	}
	if len(in.Keywords) > 0 {
		matched := 0
		for _, kw := range in.Keywords {
			if anyContains(corpus, textnorm.Fold(kw)) {
				matched++
			}
		}
		score += float64(matched) / float64(len(in.Keywords)) * relevanceKeywords
	}
	return clamp(score, relevanceFloor, 1)
}

// DistanceScore is 1 without a distance, otherwise decays linearly to 0 at 50 km.
func DistanceScore(distanceKm *float64) float64 {
	if distanceKm == nil {
		return 1
	}
	return clamp(1-*distanceKm/distanceScaleKm, 0, 1)
}

// RatingScore maps a 0..5 rating onto 0..1.
func RatingScore(rating float64) float64 {
	return clamp(rating/maxRating, 0, 1)
}

// LevelScore maps a 0..3 repairer level onto 0..1.
func LevelScore(level int) float64 {
	return clamp(float64(level)/maxLevel, 0, 1)
}

// MatchScore is the weighted sum of the four component scores.
func MatchScore(relevance, distance, rating, level float64) float64 {
	return WeightRelevance*relevance +
		WeightDistance*distance +
		WeightRating*rating +
		WeightLevel*level
}

// BuildReasons explains a score, ordered relevance, rating, distance, verification.
func BuildReasons(in models.ParsedSearchIntent, m models.MatchedRepairer) []string {
	reasons := make([]string, 0, 4)

	if m.RelevanceScore > 0.5 {
		if in.Brand != "" {
			reasons = append(reasons, "Spécialiste "+intent.BrandLabel(in.Brand))
		}
		if in.RepairType != "" {
			reasons = append(reasons, "Réparation "+intent.RepairTypeLabel(in.RepairType))
		}
	}

	switch {
	case m.RatingScore >= 0.8:
		reasons = append(reasons, fmt.Sprintf("Excellente note (%.1f/5)", m.Rating))
	case m.RatingScore >= 0.6:
		reasons = append(reasons, fmt.Sprintf("Bonne note (%.1f/5)", m.Rating))
	}

	if m.Distance != nil {
		switch {
		case m.DistanceScore >= 0.8:
			reasons = append(reasons, fmt.Sprintf("Très proche (%.1f km)", *m.Distance))
		case m.DistanceScore >= 0.5:
			reasons = append(reasons, fmt.Sprintf("À proximité (%.1f km)", *m.Distance))
		}
	}

	if m.IsVerified {
		reasons = append(reasons, "Réparateur vérifié")
	}
	return reasons
}

func anyContains(corpus []string, term string) bool {
	if term == "" {
		return false
	}
	for _, c := range corpus {
		if strings.Contains(c, term) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
