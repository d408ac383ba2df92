// Package registry describes the closed set of node kinds the editor can
// place and validates node configs against their JSON schemas.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowpad/flowpad/pkg/models"
)

// Registry holds the node kind catalog. The set is fixed at construction;
// there is no runtime plugin loading.
type Registry struct {
	logger      *slog.Logger
	order       []models.NodeKind
	definitions map[models.NodeKind]NodeDefinition
}

// NewRegistry creates a registry populated with every built-in node kind.
func NewRegistry(logger *slog.Logger) *Registry {
	registry := &Registry{
		logger:      logger.With("module", "registry"),
		definitions: make(map[models.NodeKind]NodeDefinition),
	}

	for _, definition := range buildDefinitions() {
		registry.order = append(registry.order, definition.Kind)
		registry.definitions[definition.Kind] = definition
	}

	return registry
}

// Definitions returns every node definition in palette order.
func (r *Registry) Definitions() []NodeDefinition {
	definitions := make([]NodeDefinition, 0, len(r.order))
	for _, kind := range r.order {
		definitions = append(definitions, r.definitions[kind])
	}

	return definitions
}

// Definition returns the definition for a single node kind.
func (r *Registry) Definition(kind models.NodeKind) (NodeDefinition, bool) {
	definition, ok := r.definitions[kind]

	return definition, ok
}

// HealthCheck reports whether the node kind catalog is usable.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.definitions) == 0 {
		return "node kind catalog is empty", false
	}

	return fmt.Sprintf("%d node kinds registered", len(r.definitions)), true
}

// ValidateConfig checks a raw config object against the schema for kind.
func (r *Registry) ValidateConfig(kind models.NodeKind, config map[string]any) error {
	definition, ok := r.definitions[kind]
	if !ok {
		return fmt.Errorf("unknown node kind %q", kind)
	}

	schemaLoader := gojsonschema.NewGoLoader(definition.ConfigSchema)
	documentLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, description := range result.Errors() {
			descriptions = append(descriptions, description.String())
		}

		return fmt.Errorf("invalid %s config: %s", kind, strings.Join(descriptions, "; "))
	}

	return nil
}

// NewNode builds a node of the given kind carrying the palette defaults.
func (r *Registry) NewNode(kind models.NodeKind, id string, position models.Position) (*models.Node, error) {
	definition, ok := r.definitions[kind]
	if !ok {
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}

	return &models.Node{
		ID:       id,
		Type:     kind,
		Position: position,
		Data: models.NodeData{
			NodeType: kind,
			Label:    definition.Label,
			Config:   definition.Default.Clone(),
		},
	}, nil
}
