package manifest

import (
	"regexp"

	gslug "github.com/gosimple/slug"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

// slugPattern is spec.md §3/§8's invariant 1: every character of a valid
// slug is in [a-z0-9-].
var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidSlug reports whether s is a well-formed app slug.
func ValidSlug(s string) bool {
	return s != "" && slugPattern.MatchString(s)
}

// CandidateSlug derives a slug from free text (e.g. a manifest's display
// name lacking an explicit app.name) using the same normalization a
// generic "slugify" library performs, then validates the result.
func CandidateSlug(displayName string) (string, bool) {
	s := gslug.Make(displayName)
	return s, ValidSlug(s)
}

// Validate checks schema and value invariants on a parsed manifest.
func Validate(m *Manifest) error {
	if m.App.Name == "" {
		return &voiderr.ManifestInvalid{Reason: "app.name is required"}
	}
	if !ValidSlug(m.App.Name) {
		return &voiderr.ManifestInvalid{Reason: "app.name must match [a-z0-9-]+, got " + m.App.Name}
	}
	if m.App.DisplayName == "" {
		return &voiderr.ManifestInvalid{Reason: "app.display_name is required"}
	}
	switch m.Source.Type {
	case SourceGithub:
		if m.Source.Owner == "" || m.Source.Repo == "" {
			return &voiderr.ManifestInvalid{Reason: "source.owner and source.repo are required for type=github"}
		}
	case SourceDirect:
		if m.Source.URL == "" {
			return &voiderr.ManifestInvalid{Reason: "source.url is required for type=direct"}
		}
	case SourceLocal:
		if m.Source.Path == "" {
			return &voiderr.ManifestInvalid{Reason: "source.path is required for type=local"}
		}
	default:
		return &voiderr.ManifestInvalid{Reason: "source.type must be one of github, direct, local"}
	}
	if m.Binary.Name == "" {
		return &voiderr.ManifestInvalid{Reason: "binary.name is required"}
	}
	if m.Runtime.Base == "" {
		return &voiderr.ManifestInvalid{Reason: "runtime.base is required"}
	}
	return nil
}
