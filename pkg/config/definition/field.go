package definition

import (
	"maps"
	"reflect"
	"slices"
)

// FieldDef describes one configuration key: where it lives, its default and
// how it is exposed on the command line and in the environment.
type FieldDef struct {
	Path      string // dotted config path, e.g. "server.port"
	Default   any
	CLIFlag   string
	Shorthand string
	EnvVar    string
	Type      reflect.Type
	Help      string
}

// Registry holds all configuration field definitions
type Registry struct {
	fields map[string]FieldDef
}

func NewRegistry() *Registry {
	return &Registry{
		fields: make(map[string]FieldDef),
	}
}

// Register adds or replaces a field definition.
func (r *Registry) Register(field *FieldDef) {
	r.fields[field.Path] = *field
}

func (r *Registry) GetField(path string) (FieldDef, bool) {
	field, exists := r.fields[path]
	return field, exists
}

// GetDefault returns the default value for a field path
func (r *Registry) GetDefault(path string) any {
	if field, exists := r.fields[path]; exists {
		return field.Default
	}
	return nil
}

// Paths returns every registered path in lexical order.
func (r *Registry) Paths() []string {
	return slices.Sorted(maps.Keys(r.fields))
}

func (r *Registry) GetAllFields() map[string]FieldDef {
	return maps.Clone(r.fields)
}

// GetCLIFlagMapping returns a map of CLI flag names to config paths
func (r *Registry) GetCLIFlagMapping() map[string]string {
	mapping := make(map[string]string)
	for path, field := range r.fields {
		if field.CLIFlag != "" {
			mapping[field.CLIFlag] = path
		}
	}
	return mapping
}
