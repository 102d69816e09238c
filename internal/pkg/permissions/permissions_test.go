package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsAreOpenForDesktopNeeds(t *testing.T) {
	d := Defaults()
	assert.True(t, d.Network)
	assert.True(t, d.Audio)
	assert.True(t, d.GPU)
	assert.True(t, d.Home)
	assert.True(t, d.Fonts)
	assert.True(t, d.Themes)
}

func TestDefaultsAreClosedForIntrusiveCapabilities(t *testing.T) {
	d := Defaults()
	assert.False(t, d.Microphone)
	assert.False(t, d.Camera)
	assert.False(t, d.RemovableMedia)
	assert.False(t, d.DevMode)
	assert.False(t, d.NativeMode)
}

func TestNativeModeImpliesHome(t *testing.T) {
	r := Record{NativeMode: true, Home: false}
	assert.True(t, r.Normalize().Home)
}

func TestMergeWithNilOverrideReturnsManifestDefaults(t *testing.T) {
	manifest := Defaults()
	got := Merge(manifest, nil)
	assert.Equal(t, manifest, got)
}

func TestMergeWithOverridePrefersOverride(t *testing.T) {
	manifest := Defaults()
	override := Record{DevMode: true}
	got := Merge(manifest, &override)
	assert.True(t, got.DevMode)
	assert.False(t, got.Network)
}
