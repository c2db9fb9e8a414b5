package recommend

import (
	"sort"
	"strings"
)

const fallbackReply = "Based on what is on sale and well reviewed right now, here are the safer picks " +
	"(rule-based selection this time)."

// fallbackScore ranks a candidate for the deterministic fallback. These
// weights are intentionally independent of the recall scorer; the two rank
// for different purposes and are tuned separately.
func fallbackScore(c CandidateEntry, query string, tags map[string]struct{}) float64 {
	var score float64
	name := strings.ToLower(c.Name)
	highlights := strings.ToLower(strings.Join(c.Meta.Highlights, " "))
	ingredients := strings.ToLower(strings.Join(c.Meta.Ingredients, " "))

	if strings.Contains(query, "虾") || strings.Contains(query, "shrimp") {
		if strings.Contains(name, "虾") || strings.Contains(name, "shrimp") ||
			strings.Contains(ingredients, "虾") || strings.Contains(ingredients, "shrimp") {
			score += 3.0
		}
	}
	if strings.Contains(query, "清淡") || strings.Contains(query, "light") {
		if strings.Contains(highlights, "light") || strings.Contains(highlights, "not spicy") {
			score += 2.0
		}
	}

	if _, ok := tags["no_spicy"]; ok && strings.Contains(highlights, "spicy") &&
		!strings.Contains(highlights, "not spicy") {
		score -= 3.0
	}
	if _, ok := tags["light"]; ok && strings.Contains(highlights, "light") {
		score += 1.5
	}

	score += c.Meta.Rating * 0.2
	score += float64(c.Meta.Sales) * 0.0002
	return score
}

// Fallback synthesizes a degraded response from the candidate set alone. It
// can never reference an id outside the candidates because it only selects
// from them.
func Fallback(userTags []string, query string, candidates []CandidateEntry) *Response {
	tags := make(map[string]struct{}, len(userTags))
	for _, t := range userTags {
		tags[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	loweredQuery := strings.ToLower(strings.TrimSpace(query))

	ranked := make([]CandidateEntry, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		si := fallbackScore(ranked[i], loweredQuery, tags)
		sj := fallbackScore(ranked[j], loweredQuery, tags)
		if si != sj {
			return si > sj
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > maxRecommendations {
		ranked = ranked[:maxRecommendations]
	}

	recs := make([]Recommendation, 0, len(ranked))
	for rank, c := range ranked {
		fit := 0.75 - float64(rank)*0.08
		if fit < 0.55 {
			fit = 0.55
		}
		recs = append(recs, Recommendation{
			DishID:   c.ID,
			Reason:   c.Meta.FallbackReason,
			FitScore: fit,
			Warnings: []string{},
		})
	}

	return &Response{
		Reply:           fallbackReply,
		Questions:       []string{},
		Recommendations: recs,
		Combo:           &Combo{Enabled: false, Items: []ComboItem{}},
	}
}
