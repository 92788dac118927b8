// Package theme holds the presentation registries consumed by the public
// page renderer: theme presets, font stacks, builtin link icons and social
// platform brand colors.
package theme

import "strings"

// Preset is a named theme configuration applied as a whole from the editor.
type Preset struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	AccentColor     string `json:"accentColor"`
	ButtonStyle     string `json:"buttonStyle"`
	Font            string `json:"font"`
	BackgroundStyle string `json:"backgroundStyle"`
	BackgroundColor string `json:"backgroundColor"`
}

var presets = []Preset{
	{
		ID:              "aurora",
		Name:            "Aurora",
		Description:     "Deep, dreamy gradients with glassmorphism",
		AccentColor:     "#FF3366",
		ButtonStyle:     "rounded-xl",
		Font:            "jakarta",
		BackgroundStyle: "color",
		BackgroundColor: "#000000",
	},
	{
		ID:              "mineral",
		Name:            "Mineral",
		Description:     "Clean, solid colors with high contrast",
		AccentColor:     "#0f172a",
		ButtonStyle:     "rounded-none",
		Font:            "inter",
		BackgroundStyle: "color",
		BackgroundColor: "#f8fafc",
	},
	{
		ID:              "neo",
		Name:            "Neo",
		Description:     "Dark mode with neon accents",
		AccentColor:     "#4ADE80",
		ButtonStyle:     "rounded-none",
		Font:            "mono",
		BackgroundStyle: "color",
		BackgroundColor: "#000000",
	},
	{
		ID:              "glitch",
		Name:            "Glitch",
		Description:     "Acid green & cyberpunk aesthetics",
		AccentColor:     "#CCFF00",
		ButtonStyle:     "rounded-none",
		Font:            "mono",
		BackgroundStyle: "color",
		BackgroundColor: "#050505",
	},
}

// Presets returns all theme presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetByID looks up a preset; ok is false for unknown IDs.
func PresetByID(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// fontStacks maps font keys to CSS font-family stacks. The first entry is
// the default.
var fontStacks = map[string]string{
	"jakarta":      `"Plus Jakarta Sans", sans-serif`,
	"inter":        `"Inter", sans-serif`,
	"work":         `"Work Sans", sans-serif`,
	"playfair":     `"Playfair Display", serif`,
	"merriweather": `"Merriweather", serif`,
	"oswald":       `"Oswald", sans-serif`,
	"caveat":       `"Caveat", cursive`,
	"mono":         `"Space Mono", monospace`,
}

const defaultFont = "jakarta"

// FontStack resolves a font key to its CSS stack, falling back to the
// default for unknown keys.
func FontStack(key string) string {
	if stack, ok := fontStacks[key]; ok {
		return stack
	}
	return fontStacks[defaultFont]
}

// buttonRadii maps button style keys to CSS border-radius values.
var buttonRadii = map[string]string{
	"rounded-none": "0",
	"rounded-lg":   "0.5rem",
	"rounded-xl":   "0.75rem",
	"rounded-full": "9999px",
}

// ButtonRadius resolves a button style key to a border-radius.
func ButtonRadius(key string) string {
	if r, ok := buttonRadii[key]; ok {
		return r
	}
	return buttonRadii["rounded-xl"]
}

// IsVideoURL reports whether a link URL should render as an embedded player
// instead of a button.
func IsVideoURL(url string) bool {
	return strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be")
}
