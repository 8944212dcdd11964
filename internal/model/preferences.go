package model

import (
	"fmt"
	"slices"
)

// Allowed preference values.
var (
	Themes      = []string{"nebula", "sunrise", "emerald", "midnight"}
	Fonts       = []string{"inter", "poppins", "space", "lora"}
	ColorCombos = []string{"violet", "ocean", "sunset", "forest"}
	CardStyles  = []string{"glass", "solid"}
)

// Preferences are presentation settings persisted between runs. They have no
// effect on quiz content or grading.
type Preferences struct {
	Theme      string `json:"theme"`
	Font       string `json:"font"`
	ColorCombo string `json:"colorCombo"`
	Animations bool   `json:"animations"`
	CardStyle  string `json:"cardStyle"`
}

// DefaultPreferences returns the settings used when nothing is stored.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:      "nebula",
		Font:       "inter",
		ColorCombo: "violet",
		Animations: true,
		CardStyle:  "glass",
	}
}

// Validate reports the first field holding an unknown value.
func (p Preferences) Validate() error {
	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"theme", p.Theme, Themes},
		{"font", p.Font, Fonts},
		{"colorCombo", p.ColorCombo, ColorCombos},
		{"cardStyle", p.CardStyle, CardStyles},
	}
	for _, c := range checks {
		if !slices.Contains(c.allowed, c.value) {
			return fmt.Errorf("invalid %s %q", c.field, c.value)
		}
	}
	return nil
}
