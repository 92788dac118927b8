package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	all := Presets()
	require.Len(t, all, 4)
	assert.Equal(t, "aurora", all[0].ID)

	// Mutating the returned slice must not leak into the registry.
	all[0].ID = "tampered"
	assert.Equal(t, "aurora", Presets()[0].ID)
}

func TestPresetByID(t *testing.T) {
	preset, ok := PresetByID("neo")
	require.True(t, ok)
	assert.Equal(t, "#4ADE80", preset.AccentColor)

	_, ok = PresetByID("vaporwave")
	assert.False(t, ok)
}

func TestFontStack(t *testing.T) {
	assert.Equal(t, `"Space Mono", monospace`, FontStack("mono"))
	assert.Equal(t, `"Plus Jakarta Sans", sans-serif`, FontStack("unknown"))
	assert.Equal(t, `"Plus Jakarta Sans", sans-serif`, FontStack(""))
}

func TestButtonRadius(t *testing.T) {
	assert.Equal(t, "0", ButtonRadius("rounded-none"))
	assert.Equal(t, "9999px", ButtonRadius("rounded-full"))
	assert.Equal(t, "0.75rem", ButtonRadius("unknown"))
}

func TestIsVideoURL(t *testing.T) {
	assert.True(t, IsVideoURL("https://www.youtube.com/watch?v=abc"))
	assert.True(t, IsVideoURL("https://youtu.be/abc"))
	assert.False(t, IsVideoURL("https://vimeo.com/123"))
	assert.False(t, IsVideoURL("https://example.com"))
}

func TestValidIcon(t *testing.T) {
	assert.True(t, ValidIcon(""))
	assert.True(t, ValidIcon("github"))
	assert.False(t, ValidIcon("nonsense"))
}

func TestBrandColor(t *testing.T) {
	assert.NotEmpty(t, BrandColor("instagram"))
	assert.Empty(t, BrandColor("unknown-platform"), "unknown platforms inherit the theme accent")
}
