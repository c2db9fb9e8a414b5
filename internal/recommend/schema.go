package recommend

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Structural limits of the generated response. Anything over a limit is a
// schema violation, not a truncation.
const (
	maxRecommendations = 3
	maxQuestions       = 3
	maxReasons         = 6
	maxWarnings        = 6
	maxComboItems      = 10
	maxComboQty        = 99
)

// Recommendation is one suggested dish with its justification.
type Recommendation struct {
	DishID   int64    `json:"dish_id"`
	Reason   []string `json:"reason"`
	FitScore float64  `json:"fit_score"`
	Warnings []string `json:"warnings"`
}

// ComboItem is one dish inside a suggested combo.
type ComboItem struct {
	DishID int64 `json:"dish_id"`
	Qty    int   `json:"qty"`
}

// Combo is an optional multi-dish suggestion.
type Combo struct {
	Enabled       bool        `json:"enabled"`
	Items         []ComboItem `json:"items"`
	TotalEstimate *float64    `json:"total_estimate"`
	Logic         *string     `json:"logic"`
}

// Response is the structured recommendation result, whether generated,
// repaired, or synthesized by the fallback ranker.
type Response struct {
	Reply           string           `json:"reply"`
	Questions       []string         `json:"questions"`
	Recommendations []Recommendation `json:"recommendations"`
	Combo           *Combo           `json:"combo"`
}

// validationError marks a generation defect that triggers repair-then-fallback
// instead of surfacing to the caller.
type validationError struct {
	reason       string
	offendingIDs []int64
}

func (e *validationError) Error() string {
	if len(e.offendingIDs) > 0 {
		return fmt.Sprintf("%s: %v", e.reason, e.offendingIDs)
	}
	return e.reason
}

// ParseResponse decodes and schema-checks a raw generator blob. The generator
// is told to emit bare JSON but occasionally wraps it in a code fence anyway,
// so fences are stripped before decoding.
func ParseResponse(raw string) (*Response, error) {
	cleaned := stripCodeFence(raw)

	var resp Response
	decoder := json.NewDecoder(strings.NewReader(cleaned))
	if err := decoder.Decode(&resp); err != nil {
		return nil, &validationError{reason: "response is not valid JSON"}
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, &validationError{reason: "response carries trailing content after the JSON object"}
	}

	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Response) validate() error {
	if strings.TrimSpace(r.Reply) == "" {
		return &validationError{reason: "reply must not be empty"}
	}
	if len(r.Questions) > maxQuestions {
		return &validationError{reason: "too many questions"}
	}
	if len(r.Recommendations) > maxRecommendations {
		return &validationError{reason: "too many recommendations"}
	}
	for _, rec := range r.Recommendations {
		if rec.DishID <= 0 {
			return &validationError{reason: "recommendation dish_id must be positive"}
		}
		if rec.FitScore < 0 || rec.FitScore > 1 {
			return &validationError{reason: "fit_score out of range"}
		}
		if len(rec.Reason) > maxReasons {
			return &validationError{reason: "too many reasons"}
		}
		if len(rec.Warnings) > maxWarnings {
			return &validationError{reason: "too many warnings"}
		}
	}
	if r.Combo != nil {
		if len(r.Combo.Items) > maxComboItems {
			return &validationError{reason: "too many combo items"}
		}
		for _, item := range r.Combo.Items {
			if item.DishID <= 0 {
				return &validationError{reason: "combo dish_id must be positive"}
			}
			if item.Qty < 1 || item.Qty > maxComboQty {
				return &validationError{reason: "combo qty out of range"}
			}
		}
	}
	return nil
}

// EnforceCandidateOnly verifies every referenced dish id, including enabled
// combo items, is a member of the candidate set.
func EnforceCandidateOnly(resp *Response, candidateIDs map[int64]struct{}) error {
	var offending []int64
	seen := map[int64]struct{}{}

	flag := func(id int64) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		offending = append(offending, id)
	}

	for _, rec := range resp.Recommendations {
		if _, ok := candidateIDs[rec.DishID]; !ok {
			flag(rec.DishID)
		}
	}
	if resp.Combo != nil && resp.Combo.Enabled {
		for _, item := range resp.Combo.Items {
			if _, ok := candidateIDs[item.DishID]; !ok {
				flag(item.DishID)
			}
		}
	}
	if len(offending) > 0 {
		return &validationError{reason: "dish ids outside the candidate set", offendingIDs: offending}
	}
	return nil
}

func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
