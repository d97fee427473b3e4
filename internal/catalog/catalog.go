package catalog

import (
	"fmt"
	"strings"
)

// Catalog is the loaded set of tools and environments.
type Catalog struct {
	Tools      *Registry[*Tool]
	Envs       *Registry[*Environment]
	DefaultEnv DefaultEnvFunc
}

// ValidationError reports a catalog defect found at construction time.
type ValidationError struct {
	Entry  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid catalog entry %q: %s", e.Entry, e.Reason)
}

// New validates the tools and environments and builds a catalog. Paths of
// managed tools must already be resolved by the loader.
func New(tools []*Tool, envs []*Environment, defaultEnv DefaultEnvFunc) (*Catalog, error) {
	for _, t := range tools {
		if err := validateTool(t); err != nil {
			return nil, err
		}
	}
	for _, e := range envs {
		if err := validateTags(e.Name, e.Tags); err != nil {
			return nil, err
		}
	}

	toolReg, err := NewToolRegistry(tools)
	if err != nil {
		return nil, fmt.Errorf("tools: %w", err)
	}
	envReg, err := NewEnvRegistry(envs)
	if err != nil {
		return nil, fmt.Errorf("envs: %w", err)
	}
	return &Catalog{Tools: toolReg, Envs: envReg, DefaultEnv: defaultEnv}, nil
}

func validateTool(t *Tool) error {
	if t.Name == "" {
		return &ValidationError{Entry: "", Reason: "tool name is required"}
	}
	if t.Managed {
		if strings.ContainsAny(t.Name, `/\`) || t.Name == "." || t.Name == ".." {
			return &ValidationError{Entry: t.Name, Reason: "managed tool name must be a plain file name"}
		}
		for p, link := range t.Links {
			if p == "" {
				return &ValidationError{Entry: t.Name, Reason: "link declared for empty platform"}
			}
			if link.URL == "" {
				return &ValidationError{Entry: t.Name, Reason: fmt.Sprintf("link for %s has no url", p)}
			}
			if link.SignatureURL != "" && link.Keyring == "" {
				return &ValidationError{Entry: t.Name, Reason: fmt.Sprintf("link for %s has a signature but no keyring", p)}
			}
		}
	} else if len(t.Links) > 0 {
		return &ValidationError{Entry: t.Name, Reason: "unmanaged tool cannot declare links"}
	}
	if t.Path == "" {
		return &ValidationError{Entry: t.Name, Reason: "tool path is required"}
	}
	return validateTags(t.Name, t.Tags)
}

func validateTags(name string, tags []string) error {
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return &ValidationError{Entry: name, Reason: "empty tag"}
		}
		if strings.Contains(tag, ",") {
			return &ValidationError{Entry: name, Reason: fmt.Sprintf("tag %q contains a comma", tag)}
		}
	}
	return nil
}
