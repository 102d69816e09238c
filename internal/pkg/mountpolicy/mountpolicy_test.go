package mountpolicy

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestAlwaysFirstThreeAreSysDevTmp(t *testing.T) {
	entries := Build(Permissions{}, Env{})
	assert.Assert(t, len(entries) >= 3)
	assert.Check(t, is.Equal(entries[0].Source, "/sys"))
	assert.Check(t, is.Equal(entries[0].Requirement, Required))
	assert.Check(t, is.Equal(entries[1].Source, "/dev"))
	assert.Check(t, is.Equal(entries[2].Source, "/tmp"))
}

func TestNativeModeReturnsEarlyWithoutDesktopCategories(t *testing.T) {
	env := Env{XDGRuntimeDir: "/run/user/1000", Home: "/home/u", User: "u"}
	entries := Build(Permissions{NativeMode: true, Fonts: true, Themes: true}, env)

	var sawFonts bool
	for _, e := range entries {
		if e.Target == "usr/share/fonts" {
			sawFonts = true
		}
	}
	assert.Check(t, !sawFonts, "native mode must not fall through to fonts/themes categories")

	var sawHome bool
	for _, e := range entries {
		if e.Source == "/home/u" && e.Target == "home/u" {
			sawHome = true
			assert.Check(t, is.Equal(e.Requirement, Required))
			assert.Check(t, is.Equal(e.Access, ReadWrite))
		}
	}
	assert.Check(t, sawHome)
}

func TestNonNativeHomeIsRequiredReadWrite(t *testing.T) {
	env := Env{Home: "/home/u", User: "u"}
	entries := Build(Permissions{Home: true}, env)
	found := false
	for _, e := range entries {
		if e.Target == "home/u" {
			found = true
			assert.Check(t, is.Equal(e.Requirement, Required))
			assert.Check(t, is.Equal(e.Access, ReadWrite))
		}
	}
	assert.Check(t, found)
}

func TestFontsAddsTwoOptionalMounts(t *testing.T) {
	entries := Build(Permissions{Fonts: true}, Env{})
	count := 0
	for _, e := range entries {
		if e.Target == "usr/share/fonts" || e.Target == "usr/local/share/fonts" {
			count++
			assert.Check(t, is.Equal(e.Requirement, Optional))
			assert.Check(t, is.Equal(e.Access, ReadOnly))
		}
	}
	assert.Check(t, is.Equal(count, 2))
}

func TestThemesAddsFiveOptionalMounts(t *testing.T) {
	entries := Build(Permissions{Themes: true}, Env{Home: "/home/u"})
	count := 0
	for _, e := range entries {
		switch e.Target {
		case "usr/share/themes", "usr/share/icons", "usr/share/pixmaps",
			"root/.config/gtk-3.0", "root/.config/gtk-4.0":
			count++
		}
	}
	assert.Check(t, is.Equal(count, 5))
}

func TestDevModeMountsBothHostPrefixedAndShebangPaths(t *testing.T) {
	entries := Build(Permissions{DevMode: true}, Env{Home: "/home/u"})
	var sawHostCargo, sawShebangCargo bool
	for _, e := range entries {
		if e.Source == "/home/u/.cargo" {
			if e.Target == "host/.cargo" {
				sawHostCargo = true
			}
			if e.Target == "home/u/.cargo" {
				sawShebangCargo = true
			}
		}
	}
	assert.Check(t, sawHostCargo)
	assert.Check(t, sawShebangCargo)
}

func TestXDGRuntimeDirMountedWhenSet(t *testing.T) {
	entries := Build(Permissions{}, Env{XDGRuntimeDir: "/run/user/1000"})
	found := false
	for _, e := range entries {
		if e.Source == "/run/user/1000" {
			found = true
			assert.Check(t, is.Equal(e.Target, "run/user/1000"))
			assert.Check(t, is.Equal(e.Requirement, Required))
		}
	}
	assert.Check(t, found)
}
