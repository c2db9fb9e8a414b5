package types

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/smartdine/smartdine-backend/pkg/money"
)

// Selection maps a spec group name to the chosen option name, e.g.
// {"size": "large", "spice": "mild"}.
type Selection map[string]string

// CanonicalKey returns a deterministic, order-independent encoding of the
// selection. Two cart lines with the same dish and the same canonical key are
// the same line. An empty or nil selection encodes as "{}".
func (s Selection) CanonicalKey() string {
	if len(s) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		name, _ := json.Marshal(k)
		value, _ := json.Marshal(s[k])
		b.Write(name)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')
	return b.String()
}

// SpecOption is one selectable value inside a spec group. The price delta is
// added to the dish base price when the option is chosen.
type SpecOption struct {
	Name       string      `json:"name"`
	PriceDelta money.Cents `json:"price_delta_cents,omitempty"`
}

// SpecOptions is the ordered option list of a spec group.
type SpecOptions []SpecOption

// Find returns the option with the given name, if present.
func (o SpecOptions) Find(name string) (SpecOption, bool) {
	for _, opt := range o {
		if opt.Name == name {
			return opt, true
		}
	}
	return SpecOption{}, false
}
