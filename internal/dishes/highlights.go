package dishes

import (
	"strings"

	"github.com/smartdine/smartdine-backend/pkg/types"
)

// Highlight tag values surfaced on dish cards and candidate payloads.
const (
	HighlightLight       = "light"
	HighlightRich        = "rich"
	HighlightNotSpicy    = "not spicy"
	HighlightVerySpicy   = "very spicy"
	HighlightHotDish     = "hot dish"
	HighlightColdDish    = "cold dish"
	HighlightShrimp      = "shrimp"
	HighlightBeef        = "beef"
	HighlightChicken     = "chicken"
	HighlightHighProtein = "high protein"
	HighlightLowCarb     = "low carb"
)

const maxHighlights = 5

// ingredient marker families; matching is case-insensitive and bilingual.
var (
	shrimpMarkers  = []string{"shrimp", "prawn", "虾", "虾仁"}
	beefMarkers    = []string{"beef", "牛肉"}
	chickenMarkers = []string{"chicken", "鸡肉"}
)

// ComputeHighlights derives up to five deduplicated tags from the attribute
// bag. The check order below fixes the tie order among qualifying tags; the
// result is truncated, never re-sorted.
func ComputeHighlights(meta types.DishMeta) []string {
	highlights := make([]string, 0, maxHighlights)

	if light := meta.Taste.Light; light != nil && *light >= 3 {
		highlights = append(highlights, HighlightLight)
	} else if greasy := meta.Taste.Greasy; greasy != nil && *greasy >= 4 {
		highlights = append(highlights, HighlightRich)
	}

	if spicy := meta.Taste.Spicy; spicy != nil {
		switch {
		case *spicy == 0:
			highlights = append(highlights, HighlightNotSpicy)
		case *spicy >= 4:
			highlights = append(highlights, HighlightVerySpicy)
		}
	}

	switch meta.Temperature {
	case "hot":
		highlights = append(highlights, HighlightHotDish)
	case "cold":
		highlights = append(highlights, HighlightColdDish)
	}

	if containsAnyMarker(meta.Ingredients, shrimpMarkers) {
		highlights = append(highlights, HighlightShrimp)
	}
	if containsAnyMarker(meta.Ingredients, beefMarkers) {
		highlights = append(highlights, HighlightBeef)
	}
	if containsAnyMarker(meta.Ingredients, chickenMarkers) {
		highlights = append(highlights, HighlightChicken)
	}

	if meta.Diet.HighProtein {
		highlights = append(highlights, HighlightHighProtein)
	}
	if meta.Diet.LowCarb {
		highlights = append(highlights, HighlightLowCarb)
	}

	deduped := make([]string, 0, len(highlights))
	seen := map[string]struct{}{}
	for _, h := range highlights {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		deduped = append(deduped, h)
	}
	if len(deduped) > maxHighlights {
		deduped = deduped[:maxHighlights]
	}
	return deduped
}

func containsAnyMarker(values []string, markers []string) bool {
	for _, v := range values {
		lowered := strings.ToLower(v)
		for _, marker := range markers {
			if strings.Contains(lowered, marker) {
				return true
			}
		}
	}
	return false
}
