package basestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVersionDirsFiltersNonVersionLinks(t *testing.T) {
	html := `
<a href="../">../</a>
<a href="20.04/">20.04/</a>
<a href="24.04.1/">24.04.1/</a>
<a href="release/">release/</a>
<a href="22.04/">22.04/</a>
`
	versions := parseVersionDirs(html)
	assert.ElementsMatch(t, []string{"20.04", "24.04.1", "22.04"}, versions)
}

func TestSortVersionsAscendingNumeric(t *testing.T) {
	versions := []string{"9.10", "24.04.1", "20.04", "22.04"}
	sortVersionsAscending(versions)
	assert.Equal(t, []string{"9.10", "20.04", "22.04", "24.04.1"}, versions)
}

func TestTwoComponentPrefix(t *testing.T) {
	assert.Equal(t, "24.04", twoComponentPrefix("24.04.1"))
	assert.Equal(t, "20.04", twoComponentPrefix("20.04"))
}

func TestCompareVersionsHandlesDifferentLengths(t *testing.T) {
	assert.True(t, compareVersions("24.04", "24.04.1") < 0)
	assert.True(t, compareVersions("24.04.1", "24.04") > 0)
	assert.Equal(t, 0, compareVersions("24.04", "24.04"))
}
