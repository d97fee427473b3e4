// Package catalog holds the immutable tool and environment registries that
// gearbox operates on, together with the selector logic used to pick entries
// by name or tag.
package catalog

import (
	"path/filepath"
	"slices"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/platform"
)

// TagAll is the reserved tag that makes an entry match every tag selector.
const TagAll = "all"

// RawMember marks a link whose artifact is the executable itself rather than
// an archive.
const RawMember = "."

// LinkSpec describes where a managed tool's artifact is fetched from on one
// platform.
type LinkSpec struct {
	// URL of the artifact.
	URL string `json:"url" yaml:"url"`

	// Member is the path inside the extracted archive that becomes the tool.
	// Empty or "." means the artifact is a raw executable.
	Member string `json:"member,omitempty" yaml:"member,omitempty"`

	// SHA256 is the expected hex digest of the artifact (optional).
	SHA256 string `json:"sha256,omitempty" yaml:"sha256,omitempty"`

	// SignatureURL points at a detached OpenPGP signature (optional).
	SignatureURL string `json:"signature,omitempty" yaml:"signature,omitempty"`

	// Keyring is an armored OpenPGP public key block used with SignatureURL.
	Keyring string `json:"keyring,omitempty" yaml:"keyring,omitempty"`
}

// IsRaw reports whether the artifact is a directly executable binary.
func (l LinkSpec) IsRaw() bool {
	return l.Member == "" || l.Member == RawMember
}

// Tool is an external executable known to the catalog.
type Tool struct {
	Name    string
	Version string
	Tags    []string
	Path    string
	Managed bool
	Links   map[platform.Platform]LinkSpec
}

// String returns the tool name.
func (t *Tool) String() string {
	return t.Name
}

// LinkFor returns the link declared for the given platform. There is no
// fallback: a missing key means the tool cannot be installed there.
func (t *Tool) LinkFor(p platform.Platform) (LinkSpec, bool) {
	link, ok := t.Links[p]
	return link, ok
}

// HasTag reports whether the tool carries tag literally.
func (t *Tool) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// ManagedPath returns the install location of a managed tool inside toolsDir.
func ManagedPath(toolsDir, name string, p platform.Platform) string {
	return filepath.Join(toolsDir, name+p.ExecutableSuffix())
}

// Environment is a named deployment target.
type Environment struct {
	Name string
	Tags []string
}

// String returns the environment name.
func (e *Environment) String() string {
	return e.Name
}

// Equal compares environments by name and tags. Two nil environments are
// equal; nil never equals a non-nil environment.
func (e *Environment) Equal(other *Environment) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Name == other.Name && slices.Equal(e.Tags, other.Tags)
}

// DefaultEnvFunc supplies the current environment name when no marker has
// been persisted yet.
type DefaultEnvFunc func() (string, error)
