package recommend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smartdine/smartdine-backend/pkg/enums"
	"github.com/smartdine/smartdine-backend/pkg/genai"
)

// PromptInput bundles everything the generation request embeds.
type PromptInput struct {
	UserTags            []string
	DietaryRestrictions []string
	ImplicitProfile     map[string]any
	Now                 time.Time
	Query               string
	Candidates          []CandidateEntry
}

const repairInstruction = "The previous output was invalid. Output strict JSON only, " +
	"and every dish_id must come from the allowed candidate id list. Try again."

// BuildPrompt assembles the single generation request. The system turn carries
// the hard rules, the allowed id list, and the compressed candidate payload;
// this is the only place a prompt is constructed.
func BuildPrompt(input PromptInput) []genai.Message {
	candidateIDs := make([]int64, 0, len(input.Candidates))
	for _, c := range input.Candidates {
		candidateIDs = append(candidateIDs, c.ID)
	}

	profileJSON, _ := json.Marshal(input.ImplicitProfile)
	candidatesJSON, _ := json.Marshal(input.Candidates)
	bucket := enums.MealBucketFor(input.Now.UTC())

	var b strings.Builder
	b.WriteString("You are a smart dining assistant. You must obey these hard rules:\n\n")
	fmt.Fprintf(&b, "[Rule 1] You may only recommend dishes from the allowed candidate id list: %v\n", candidateIDs)
	b.WriteString("[Rule 2] Output strict JSON only. No extra prose, no Markdown, no code fences.\n")
	b.WriteString("[Rule 3] The recommendations array holds at most 3 entries; each entry must include dish_id, reason, fit_score and warnings.\n")
	b.WriteString("[Rule 4] If information is missing (party size, budget), ask through questions first; a conservative recommendation is still allowed but must come from the candidate ids.\n\n")
	fmt.Fprintf(&b, "Current time: %s\n", input.Now.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Meal period: %s\n", bucket)
	fmt.Fprintf(&b, "Explicit user tags: %v\n", input.UserTags)
	fmt.Fprintf(&b, "Hard dietary restrictions: %v\n", input.DietaryRestrictions)
	fmt.Fprintf(&b, "Implicit profile: %s\n\n", profileJSON)
	fmt.Fprintf(&b, "Candidate dishes (selection only, never invent others):\n%s\n\n", candidatesJSON)
	fmt.Fprintf(&b, "Recommend based on the user's input. User input: %s\n\n", input.Query)
	b.WriteString(`Output JSON in exactly this shape (all fields required):
{
  "reply": "natural language reply",
  "questions": ["optional, at most 3 follow-ups"],
  "recommendations": [
    {
      "dish_id": 101,
      "reason": ["reason 1", "reason 2"],
      "fit_score": 0.86,
      "warnings": []
    }
  ],
  "combo": {
    "enabled": false,
    "items": [],
    "total_estimate": null,
    "logic": null
  }
}`)

	return []genai.Message{{Role: "system", Content: b.String()}}
}

// AppendRepairTurn extends the original prompt with the corrective
// instruction for the single repair attempt.
func AppendRepairTurn(messages []genai.Message) []genai.Message {
	repaired := make([]genai.Message, 0, len(messages)+1)
	repaired = append(repaired, messages...)
	return append(repaired, genai.Message{Role: "user", Content: repairInstruction})
}
