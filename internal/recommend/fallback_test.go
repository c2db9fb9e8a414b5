package recommend

import "testing"

func sampleCandidates() []CandidateEntry {
	return []CandidateEntry{
		{ID: 1, Name: "Shrimp Noodles", Meta: CandidateMeta{
			Rating: 4.0, Sales: 100,
			Ingredients:    []string{"shrimp"},
			Highlights:     []string{"not spicy"},
			FallbackReason: genericFallbackReasons,
		}},
		{ID: 2, Name: "Mapo Tofu", Meta: CandidateMeta{
			Rating: 4.8, Sales: 5000,
			Highlights:     []string{"very spicy", "hot dish"},
			FallbackReason: genericFallbackReasons,
		}},
		{ID: 3, Name: "Steamed Greens", Meta: CandidateMeta{
			Rating: 4.2, Sales: 800,
			Highlights:     []string{"light", "not spicy"},
			FallbackReason: genericFallbackReasons,
		}},
		{ID: 4, Name: "Braised Pork", Meta: CandidateMeta{
			Rating: 4.5, Sales: 2000,
			Highlights:     []string{"rich"},
			FallbackReason: genericFallbackReasons,
		}},
	}
}

func TestFallbackSelectsOnlyFromCandidates(t *testing.T) {
	t.Parallel()

	candidates := sampleCandidates()
	resp := Fallback([]string{"light"}, "something light", candidates)

	if len(resp.Recommendations) != 3 {
		t.Fatalf("expected top 3, got %d", len(resp.Recommendations))
	}
	allowed := map[int64]struct{}{}
	for _, c := range candidates {
		allowed[c.ID] = struct{}{}
	}
	if err := EnforceCandidateOnly(resp, allowed); err != nil {
		t.Fatalf("fallback must be candidate-only: %v", err)
	}
}

func TestFallbackFitScoresDecayWithFloor(t *testing.T) {
	t.Parallel()

	resp := Fallback(nil, "", sampleCandidates())
	want := []float64{0.75, 0.67, 0.59}
	for i, rec := range resp.Recommendations {
		if diff := rec.FitScore - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("rank %d: expected fit %.2f, got %v", i, want[i], rec.FitScore)
		}
		if rec.FitScore < 0.55 {
			t.Fatalf("fit score below floor: %v", rec.FitScore)
		}
	}
}

func TestFallbackTagPenaltiesAndBonuses(t *testing.T) {
	t.Parallel()

	resp := Fallback([]string{"no_spicy", "light"}, "light", sampleCandidates())

	// the very-spicy dish carries the highest rating and sales but must be
	// pushed out by the no_spicy penalty
	if resp.Recommendations[0].DishID != 3 {
		t.Fatalf("expected the light dish first, got %d", resp.Recommendations[0].DishID)
	}
	for _, rec := range resp.Recommendations {
		if rec.DishID == 2 {
			t.Fatal("expected the very-spicy dish excluded from the top 3")
		}
	}
}

func TestFallbackEmptyCandidates(t *testing.T) {
	t.Parallel()

	resp := Fallback(nil, "anything", nil)
	if len(resp.Recommendations) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(resp.Recommendations))
	}
	if resp.Reply == "" {
		t.Fatal("expected a reply even with no candidates")
	}
	if resp.Combo == nil || resp.Combo.Enabled {
		t.Fatal("expected a disabled combo")
	}
}
