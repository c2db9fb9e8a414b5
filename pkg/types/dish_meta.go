package types

// TasteProfile holds 0-5 intensity axes for a dish. Nil means the axis was
// never annotated; readers substitute the documented defaults below instead of
// treating nil as zero.
type TasteProfile struct {
	Spicy   *int `json:"spicy,omitempty"`
	Sweet   *int `json:"sweet,omitempty"`
	Sour    *int `json:"sour,omitempty"`
	Numbing *int `json:"numbing,omitempty"`
	Greasy  *int `json:"greasy,omitempty"`
	Light   *int `json:"light,omitempty"`
}

const (
	// DefaultSpicy and DefaultLight are assumed for unannotated dishes when
	// scoring; a middle-of-the-road profile that earns no bonuses.
	DefaultSpicy = 2
	DefaultLight = 2
)

// SpicyOrDefault returns the annotated spice level or the default.
func (t TasteProfile) SpicyOrDefault() int {
	if t.Spicy != nil {
		return *t.Spicy
	}
	return DefaultSpicy
}

// LightOrDefault returns the annotated lightness or the default.
func (t TasteProfile) LightOrDefault() int {
	if t.Light != nil {
		return *t.Light
	}
	return DefaultLight
}

// GreasyOrDefault returns the annotated greasiness or zero.
func (t TasteProfile) GreasyOrDefault() int {
	if t.Greasy != nil {
		return *t.Greasy
	}
	return 0
}

// DietFlags carries the boolean dietary markers the ranking logic reads.
type DietFlags struct {
	HighProtein bool `json:"high_protein,omitempty"`
	LowCarb     bool `json:"low_carb,omitempty"`
	Vegetarian  bool `json:"vegetarian,omitempty"`
}

// DishMeta is the semi-structured attribute bag attached to every dish. Every
// field the highlight and scoring logic reads is declared here explicitly;
// absent fields decode to their zero value.
type DishMeta struct {
	Taste       TasteProfile `json:"taste"`
	Temperature string       `json:"temperature,omitempty"`
	Ingredients []string     `json:"ingredients,omitempty"`
	Allergens   []string     `json:"allergens,omitempty"`
	Diet        DietFlags    `json:"diet"`
	Scenes      []string     `json:"scenes,omitempty"`
}
