package harvest

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template placeholders.
const (
	PlaceholderID        = "{id}"
	PlaceholderRelatedID = "{rel_id}"
)

// Registry maps API version identifiers to their endpoint tables.
type Registry map[string]APIVersion

// APIVersion is the endpoint table of one API version.
type APIVersion struct {
	Base string `json:"base" yaml:"base"`
	URIs URIs   `json:"uris" yaml:"uris"`
}

// URIs holds the directly addressable resources of a version.
type URIs struct {
	Direct map[string]Endpoint `json:"direct" yaml:"direct"`
}

// Endpoint describes a top-level resource. An empty template means the mode is unsupported.
type Endpoint struct {
	List     string                     `json:"list,omitempty"     yaml:"list,omitempty"`
	Retrieve string                     `json:"retrieve,omitempty" yaml:"retrieve,omitempty"`
	Related  map[string]RelatedEndpoint `json:"related,omitempty"  yaml:"related,omitempty"`
}

// RelatedEndpoint describes a sub-resource scoped under a parent object.
// Both templates contain {rel_id}.
type RelatedEndpoint struct {
	List     string `json:"list,omitempty"     yaml:"list,omitempty"`
	Retrieve string `json:"retrieve,omitempty" yaml:"retrieve,omitempty"`
}

// LoadRegistry decodes a YAML or JSON registry document and validates it.
func LoadRegistry(r io.Reader) (Registry, error) {
	var registry Registry

	err := yaml.NewDecoder(r).Decode(&registry)
	if err != nil {
		return nil, fmt.Errorf("decoding registry: %w", err)
	}

	err = registry.Validate()
	if err != nil {
		return nil, err
	}

	return registry, nil
}

// Validate checks every version has a base URL and every related template its parent placeholder.
func (r Registry) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("%w: no versions declared", ErrInvalidRegistry)
	}

	for version, api := range r {
		if api.Base == "" {
			return fmt.Errorf("%w: version %q has no base URL", ErrInvalidRegistry, version)
		}

		for name, endpoint := range api.URIs.Direct {
			for relName, related := range endpoint.Related {
				for _, tpl := range []string{related.List, related.Retrieve} {
					if tpl != "" && !strings.Contains(tpl, PlaceholderRelatedID) {
						return fmt.Errorf("%w: %s.%s template %q lacks %s",
							ErrInvalidRegistry, name, relName, tpl, PlaceholderRelatedID)
					}
				}
			}
		}
	}

	return nil
}

// Lookup returns the endpoint table of a version.
func (r Registry) Lookup(version string) (APIVersion, error) {
	api, ok := r[version]
	if !ok {
		return APIVersion{}, fmt.Errorf("%w: %q (supported: %s)",
			ErrInvalidAPIVersion, version, strings.Join(r.Versions(), ", "))
	}

	return api, nil
}

// Versions returns the declared version identifiers, sorted.
func (r Registry) Versions() []string {
	versions := make([]string, 0, len(r))
	for version := range r {
		versions = append(versions, version)
	}

	sort.Strings(versions)

	return versions
}

// Resources returns the direct resource names, sorted.
func (v APIVersion) Resources() []string {
	return sortedKeys(v.URIs.Direct)
}

// RelatedNames returns the sub-resource names of an endpoint, sorted.
func (e Endpoint) RelatedNames() []string {
	return sortedKeys(e.Related)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// JoinURL joins a base URL and a path template with exactly one slash.
// An empty template yields an empty URL.
func JoinURL(base, template string) string {
	if template == "" {
		return ""
	}

	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(template, "/")
}

// FormatID substitutes {id} in a template.
func FormatID(template, id string) string {
	return strings.ReplaceAll(template, PlaceholderID, url.PathEscape(id))
}

// FormatRelatedID substitutes {rel_id} in a template.
func FormatRelatedID(template, parentID string) string {
	return strings.ReplaceAll(template, PlaceholderRelatedID, url.PathEscape(parentID))
}
