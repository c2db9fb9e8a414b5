package recommend

import (
	"context"
	"fmt"
	"testing"

	"github.com/smartdine/smartdine-backend/internal/dishes"
	"github.com/smartdine/smartdine-backend/pkg/db/models"
	"github.com/smartdine/smartdine-backend/pkg/enums"
	"github.com/smartdine/smartdine-backend/pkg/types"
)

type stubSellableRepo struct {
	dishes.Repository

	rows []models.Dish
}

func (s *stubSellableRepo) ListSellable(context.Context) ([]models.Dish, error) {
	return s.rows, nil
}

func intPtr(v int) *int { return &v }

func TestRecallExcludesRestrictedDishesAbsolutely(t *testing.T) {
	t.Parallel()

	repo := &stubSellableRepo{rows: []models.Dish{
		{
			ID: 1, Name: "Shrimp Feast", Status: enums.DishStatusOnSale,
			RatingAvg: 5.0, SalesCount: 100000,
			Meta: types.DishMeta{Ingredients: []string{"虾仁", "garlic"}},
		},
		{
			ID: 2, Name: "Plain Congee", Status: enums.DishStatusOnSale,
			RatingAvg: 3.0,
			Meta:      types.DishMeta{Ingredients: []string{"rice"}},
		},
		{
			ID: 3, Name: "Mystery Stew", Status: enums.DishStatusOnSale,
			RatingAvg: 4.0,
			Meta:      types.DishMeta{Allergens: []string{"Shrimp"}},
		},
	}}

	// "shrimp" must exclude the Chinese synonym in ingredients and the
	// allergen hit, no matter how well either dish scores
	candidates, err := Recall(context.Background(), repo, "shrimp", []string{"shrimp"}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != 2 {
		t.Fatalf("expected only the congee to survive, got %+v", candidates)
	}
}

func TestRecallKeywordBonusesAndTieOrder(t *testing.T) {
	t.Parallel()

	repo := &stubSellableRepo{rows: []models.Dish{
		{ID: 1, Name: "Beef Noodles", Status: enums.DishStatusOnSale, RatingAvg: 4.0},
		{ID: 2, Name: "Shrimp Noodles", Status: enums.DishStatusOnSale, RatingAvg: 4.0},
		{ID: 3, Name: "Tomato Soup", Status: enums.DishStatusOnSale, RatingAvg: 4.0},
	}}

	candidates, err := Recall(context.Background(), repo, "shrimp", nil, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidates[0].ID != 2 {
		t.Fatalf("expected the shrimp dish first, got %+v", candidates[0])
	}
	// equal scores fall back to ascending id
	if candidates[1].ID != 1 || candidates[2].ID != 3 {
		t.Fatalf("expected stable id tie order, got %+v", candidates)
	}
}

func TestRecallTruncatesToLimit(t *testing.T) {
	t.Parallel()

	repo := &stubSellableRepo{}
	for i := 1; i <= 40; i++ {
		repo.rows = append(repo.rows, models.Dish{
			ID:     int64(i),
			Name:   fmt.Sprintf("Dish %d", i),
			Status: enums.DishStatusOnSale,
		})
	}

	candidates, err := Recall(context.Background(), repo, "", nil, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 30 {
		t.Fatalf("expected 30 candidates, got %d", len(candidates))
	}
}

func TestCompressCandidateCapsListsAndDerivesHighlights(t *testing.T) {
	t.Parallel()

	meta := types.DishMeta{
		Taste: types.TasteProfile{Light: intPtr(4)},
	}
	for i := 0; i < 15; i++ {
		meta.Ingredients = append(meta.Ingredients, fmt.Sprintf("ing-%d", i))
		meta.Allergens = append(meta.Allergens, fmt.Sprintf("alg-%d", i))
	}
	dish := models.Dish{
		ID: 7, Name: "Big Bowl", PriceCents: 2550,
		RatingAvg: 4.2, SalesCount: 300, Meta: meta,
	}

	entry := compressCandidate(&dish)
	if len(entry.Meta.Ingredients) != 10 || len(entry.Meta.Allergens) != 10 {
		t.Fatalf("expected lists capped at 10, got %d/%d",
			len(entry.Meta.Ingredients), len(entry.Meta.Allergens))
	}
	if entry.Price != 25.50 {
		t.Fatalf("expected display price 25.50, got %v", entry.Price)
	}
	if len(entry.Meta.Highlights) == 0 || entry.Meta.Highlights[0] != dishes.HighlightLight {
		t.Fatalf("expected derived highlights, got %v", entry.Meta.Highlights)
	}
	if len(entry.Meta.FallbackReason) == 0 {
		t.Fatal("expected generic fallback reasons")
	}
}

func TestExpandRestrictionsRecognizesSynonymTerms(t *testing.T) {
	t.Parallel()

	// restricting by the Chinese term must pull in the whole family
	expanded := expandRestrictions([]string{"虾"})
	for _, expect := range []string{"虾", "虾仁", "shrimp", "prawn"} {
		if _, ok := expanded[expect]; !ok {
			t.Fatalf("expected %q in expanded set %v", expect, expanded)
		}
	}

	// unknown terms still match themselves
	expanded = expandRestrictions([]string{"Cilantro"})
	if _, ok := expanded["cilantro"]; !ok {
		t.Fatalf("expected bare term kept, got %v", expanded)
	}
}
