package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSlugAcceptsLowercaseAlnumDash(t *testing.T) {
	assert.True(t, ValidSlug("brave-browser-2"))
	assert.True(t, ValidSlug("a"))
}

func TestValidSlugRejectsOtherCharacters(t *testing.T) {
	cases := []string{"Brave", "brave_browser", "brave browser", "brave.app", ""}
	for _, c := range cases {
		assert.False(t, ValidSlug(c), "expected %q to be invalid", c)
	}
}

func TestParseValidManifest(t *testing.T) {
	content := []byte(`
[app]
name = "demo"
display_name = "Demo App"

[source]
type = "local"
path = "./demo.tar.gz"

[binary]
name = "demo"
`)
	m, err := Parse(content)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.App.Name)
	assert.Equal(t, SourceLocal, m.Source.Type)
	assert.Equal(t, "ubuntu:24.04", m.Runtime.Base)
}

func TestParseRejectsBadSlug(t *testing.T) {
	content := []byte(`
[app]
name = "Demo_App"
display_name = "Demo App"

[source]
type = "local"
path = "./demo.tar.gz"

[binary]
name = "demo"
`)
	_, err := Parse(content)
	require.Error(t, err)
}

func TestParseRejectsMissingSourceFields(t *testing.T) {
	content := []byte(`
[app]
name = "demo"
display_name = "Demo App"

[source]
type = "github"

[binary]
name = "demo"
`)
	_, err := Parse(content)
	require.Error(t, err)
}
