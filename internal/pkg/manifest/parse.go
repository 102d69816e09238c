package manifest

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

// Parse decodes TOML manifest content and validates it.
func Parse(content []byte) (*Manifest, error) {
	m := &Manifest{Runtime: DefaultRuntime()}
	if err := toml.Unmarshal(content, m); err != nil {
		return nil, &voiderr.ManifestInvalid{Reason: errors.Wrap(err, "toml decode").Error()}
	}
	if m.App.Name == "" && m.App.DisplayName != "" {
		if slug, ok := CandidateSlug(m.App.DisplayName); ok {
			m.App.Name = slug
		}
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseFile reads and parses a manifest from disk.
func ParseFile(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}
	return Parse(content)
}

// Marshal serializes a manifest back to TOML, used by `install` to persist
// a resolved one.
func Marshal(m *Manifest) ([]byte, error) {
	b, err := toml.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "toml encode")
	}
	return b, nil
}
