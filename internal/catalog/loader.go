package catalog

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// LoadFile builds a catalog from the built-in registries overridden by the
// sections present in the YAML file at path. A section that is absent or
// empty in the file keeps its built-in content.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse is LoadFile for in-memory YAML.
func Parse(data []byte) (*Catalog, error) {
	var override Definition
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	def := DefaultDefinition()
	if len(override.Fields) > 0 {
		def.Fields = override.Fields
	}
	if len(override.Aggregations) > 0 {
		def.Aggregations = override.Aggregations
	}
	if len(override.Applications) > 0 {
		def.Applications = override.Applications
	}
	if len(override.Environments) > 0 {
		def.Environments = override.Environments
	}
	if len(override.Facets) > 0 {
		def.Facets = override.Facets
	}
	if len(override.HealthCheckPaths) > 0 {
		def.HealthCheckPaths = override.HealthCheckPaths
	}
	if len(override.BulkEndpointPaths) > 0 {
		def.BulkEndpointPaths = override.BulkEndpointPaths
	}

	c, err := New(def)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	log.Debug().
		Int("fields", len(def.Fields)).
		Int("aggregations", len(def.Aggregations)).
		Int("applications", len(def.Applications)).
		Msg("Catalog parsed")
	return c, nil
}
