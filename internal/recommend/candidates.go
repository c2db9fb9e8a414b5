package recommend

import (
	"context"
	"sort"
	"strings"

	"github.com/smartdine/smartdine-backend/internal/dishes"
	"github.com/smartdine/smartdine-backend/pkg/db/models"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/types"
)

const (
	maxCompressedIngredients = 10
	maxCompressedAllergens   = 10
)

// CandidateMeta is the compressed attribute payload handed to the generator.
type CandidateMeta struct {
	Taste          types.TasteProfile `json:"taste"`
	Temperature    string             `json:"temperature,omitempty"`
	Ingredients    []string           `json:"ingredients"`
	Allergens      []string           `json:"allergens"`
	Diet           types.DietFlags    `json:"diet"`
	Scenes         []string           `json:"scenes"`
	Highlights     []string           `json:"highlights"`
	Rating         float64            `json:"rating"`
	Sales          int64              `json:"sales"`
	FallbackReason []string           `json:"fallback_reason"`
}

// CandidateEntry is one compressed dish projection. It exists only inside the
// recommendation pipeline and is never persisted.
type CandidateEntry struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Price float64       `json:"price"`
	Meta  CandidateMeta `json:"meta"`
}

// restriction synonym families; every entry is matched case-insensitively
// against ingredient and allergen words.
var restrictionSynonyms = map[string][]string{
	"shrimp":  {"shrimp", "prawn", "虾", "虾仁"},
	"beef":    {"beef", "牛肉"},
	"chicken": {"chicken", "鸡肉"},
	"pork":    {"pork", "猪肉"},
	"peanut":  {"peanut", "花生"},
	"egg":     {"egg", "鸡蛋"},
	"milk":    {"milk", "dairy", "牛奶"},
	"seafood": {"seafood", "海鲜"},
	"gluten":  {"gluten", "麸质"},
}

// expandRestrictions lowers each restriction and widens it to its synonym
// family. Unknown terms pass through as themselves.
func expandRestrictions(restrictions []string) map[string]struct{} {
	expanded := make(map[string]struct{}, len(restrictions))
	for _, raw := range restrictions {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" {
			continue
		}
		expanded[term] = struct{}{}
		family, ok := restrictionSynonyms[term]
		if !ok {
			// the term itself may be a synonym of a known family
			for _, synonyms := range restrictionSynonyms {
				for _, syn := range synonyms {
					if syn == term {
						family = synonyms
						break
					}
				}
			}
		}
		for _, syn := range family {
			expanded[strings.ToLower(syn)] = struct{}{}
		}
	}
	return expanded
}

// violatesRestrictions reports whether any ingredient or allergen of the dish
// intersects the expanded restriction set. The exclusion is absolute and is
// never overridden by ranking.
func violatesRestrictions(meta types.DishMeta, restrictions map[string]struct{}) bool {
	if len(restrictions) == 0 {
		return false
	}
	check := func(words []string) bool {
		for _, w := range words {
			if _, hit := restrictions[strings.ToLower(w)]; hit {
				return true
			}
		}
		return false
	}
	return check(meta.Ingredients) || check(meta.Allergens)
}

// recallScore ranks a dish for the candidate set: rating and sales as base
// signals plus keyword bonuses from the query.
func recallScore(dish *models.Dish, query string) float64 {
	score := dish.RatingAvg*0.3 + float64(dish.SalesCount)*0.0004
	if query == "" {
		return score
	}

	name := strings.ToLower(dish.Name)
	ingredients := strings.ToLower(strings.Join(dish.Meta.Ingredients, " "))

	if strings.Contains(name, query) {
		score += 3.0
	}
	if strings.Contains(ingredients, query) {
		score += 2.0
	}
	if strings.Contains(query, "虾") || strings.Contains(query, "shrimp") {
		if strings.Contains(name, "虾") || strings.Contains(ingredients, "shrimp") {
			score += 3.0
		}
	}
	if strings.Contains(query, "清淡") || strings.Contains(query, "light") {
		if dish.Meta.Taste.LightOrDefault() >= 3 || dish.Meta.Taste.SpicyOrDefault() <= 1 {
			score += 2.0
		}
	}
	return score
}

var genericFallbackReasons = []string{
	"currently on sale",
	"well rated and popular",
	"close to what you asked for",
}

func compressCandidate(dish *models.Dish) CandidateEntry {
	ingredients := dish.Meta.Ingredients
	if len(ingredients) > maxCompressedIngredients {
		ingredients = ingredients[:maxCompressedIngredients]
	}
	allergens := dish.Meta.Allergens
	if len(allergens) > maxCompressedAllergens {
		allergens = allergens[:maxCompressedAllergens]
	}
	if ingredients == nil {
		ingredients = []string{}
	}
	if allergens == nil {
		allergens = []string{}
	}
	scenes := dish.Meta.Scenes
	if scenes == nil {
		scenes = []string{}
	}

	return CandidateEntry{
		ID:    dish.ID,
		Name:  dish.Name,
		Price: dish.PriceCents.Float(),
		Meta: CandidateMeta{
			Taste:          dish.Meta.Taste,
			Temperature:    dish.Meta.Temperature,
			Ingredients:    ingredients,
			Allergens:      allergens,
			Diet:           dish.Meta.Diet,
			Scenes:         scenes,
			Highlights:     dishes.ComputeHighlights(dish.Meta),
			Rating:         dish.RatingAvg,
			Sales:          dish.SalesCount,
			FallbackReason: genericFallbackReasons,
		},
	}
}

// Recall builds the bounded, dietary-filtered, ranked candidate set for one
// recommendation call.
func Recall(ctx context.Context, dishRepo dishes.Repository, query string, dietaryRestrictions []string, limit int) ([]CandidateEntry, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := dishRepo.ListSellable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sellable dishes for recall")
	}

	restrictions := expandRestrictions(dietaryRestrictions)
	loweredQuery := strings.ToLower(strings.TrimSpace(query))

	type scored struct {
		dish  *models.Dish
		score float64
	}
	ranked := make([]scored, 0, len(rows))
	for i := range rows {
		if violatesRestrictions(rows[i].Meta, restrictions) {
			continue
		}
		ranked = append(ranked, scored{dish: &rows[i], score: recallScore(&rows[i], loweredQuery)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].dish.ID < ranked[j].dish.ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	candidates := make([]CandidateEntry, 0, len(ranked))
	for _, entry := range ranked {
		candidates = append(candidates, compressCandidate(entry.dish))
	}
	return candidates, nil
}
