package ingest

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/columns.yaml
var columnsYAML embed.FS

// Mapping holds the candidate header names for every canonical field.
type Mapping struct {
	Fields map[string][]string `yaml:"fields"`
}

// DefaultMapping loads the embedded candidate table.
func DefaultMapping() (Mapping, error) {
	data, err := columnsYAML.ReadFile("config/columns.yaml")
	if err != nil {
		return Mapping{}, fmt.Errorf("failed to read embedded column mapping: %w", err)
	}

	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Mapping{}, fmt.Errorf("failed to parse column mapping: %w", err)
	}
	if len(m.Fields) == 0 {
		return Mapping{}, fmt.Errorf("column mapping is empty")
	}

	return m, nil
}

// WithOverrides returns a copy of the mapping with per-field candidate lists
// replaced by the given overrides. Fields absent from overrides (or mapped to
// an empty list) keep the default candidates.
func (m Mapping) WithOverrides(overrides map[string][]string) Mapping {
	merged := Mapping{Fields: make(map[string][]string, len(m.Fields))}
	for field, candidates := range m.Fields {
		merged.Fields[field] = candidates
	}
	for field, candidates := range overrides {
		if len(candidates) == 0 {
			continue
		}
		merged.Fields[field] = candidates
	}
	return merged
}
