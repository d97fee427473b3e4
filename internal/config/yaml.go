package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML catalog. Unknown fields are rejected.
func ParseYAML(data []byte) (*File, error) {
	if len(data) > MaxCatalogSize {
		return nil, &ParseError{
			Message: "catalog too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(data), MaxCatalogSize),
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{Message: "YAML error", Detail: err.Error()}
	}
	if err := f.Validate(); err != nil {
		return nil, &ParseError{Message: "catalog validation failed", Detail: err.Error()}
	}
	return &f, nil
}
