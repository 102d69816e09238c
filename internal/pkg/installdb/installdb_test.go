package installdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidbox/voidbox/internal/pkg/manifest"
)

func withTempDataDir(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func TestLoadOnMissingDatabaseReturnsEmpty(t *testing.T) {
	withTempDataDir(t)

	apps, err := Load()
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestUpsertThenFindRoundTrips(t *testing.T) {
	withTempDataDir(t)

	require.NoError(t, Upsert(manifest.InstalledApp{Name: "demo", DisplayName: "Demo", Version: "1.0"}))

	found, ok, err := Find("demo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Demo", found.DisplayName)
	assert.NotEmpty(t, found.InstalledDate)
}

func TestUpsertReplacesExistingEntry(t *testing.T) {
	withTempDataDir(t)

	require.NoError(t, Upsert(manifest.InstalledApp{Name: "demo", Version: "1.0"}))
	require.NoError(t, Upsert(manifest.InstalledApp{Name: "demo", Version: "2.0"}))

	apps, err := Load()
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "2.0", apps[0].Version)
}

func TestRemoveDropsOnlyNamedEntry(t *testing.T) {
	withTempDataDir(t)

	require.NoError(t, Upsert(manifest.InstalledApp{Name: "a"}))
	require.NoError(t, Upsert(manifest.InstalledApp{Name: "b"}))
	require.NoError(t, Remove("a"))

	apps, err := Load()
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "b", apps[0].Name)
}

func TestRemoveOfAbsentEntryIsNotAnError(t *testing.T) {
	withTempDataDir(t)
	assert.NoError(t, Remove("never-installed"))
}
