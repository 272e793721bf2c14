package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/lendflow/lendflow/pkg/config/definition"
	"gopkg.in/yaml.v3"
)

// source is the single Source implementation: a kind plus a loader func.
type source struct {
	kind SourceType
	load func() (map[string]any, error)
}

func (s *source) Load() (map[string]any, error) { return s.load() }
func (s *source) Type() SourceType              { return s.kind }
func (s *source) Close() error                  { return nil }

func empty() (map[string]any, error) { return map[string]any{}, nil }

// NewEnvProvider only marks where the environment sits in the source list;
// the loader always reads it last.
func NewEnvProvider() Source {
	return &source{kind: SourceEnv, load: empty}
}

// NewCLIProvider turns changed flags, keyed by flag name, into config paths.
// Flags the registry does not know are dropped.
func NewCLIProvider(flags map[string]any) Source {
	return &source{kind: SourceCLI, load: func() (map[string]any, error) {
		out := map[string]any{}
		if len(flags) == 0 {
			return out, nil
		}
		paths := definition.CreateRegistry().GetCLIFlagMapping()
		for flag, value := range flags {
			path, ok := paths[flag]
			if !ok {
				continue
			}
			if err := setNested(out, path, value); err != nil {
				return nil, fmt.Errorf("failed to set CLI flag %s: %w", flag, err)
			}
		}
		return out, nil
	}}
}

// NewYAMLProvider reads path on every Load, so Reload picks up edits. A
// missing file is an empty source.
func NewYAMLProvider(path string) Source {
	return &source{kind: SourceYAML, load: func() (map[string]any, error) {
		raw, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file: %w", err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML file: %w", err)
		}
		return pruneNils(doc), nil
	}}
}

// NewDefaultProvider exposes the registry defaults as a nested map.
func NewDefaultProvider() Source {
	registry := definition.CreateRegistry()
	defaults := map[string]any{}
	for _, path := range registry.Paths() {
		// registry paths never put a leaf where a section lives
		_ = setNested(defaults, path, registry.GetDefault(path))
	}
	return &source{kind: SourceDefault, load: func() (map[string]any, error) { return defaults, nil }}
}

// setNested writes value at a dotted path, creating sections on the way.
func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	keys := strings.Split(path, ".")
	node := m
	for i, key := range keys[:len(keys)-1] {
		child, exists := node[key]
		if !exists {
			next := map[string]any{}
			node[key] = next
			node = next
			continue
		}
		next, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", strings.Join(keys[:i+1], "."))
		}
		node = next
	}
	node[keys[len(keys)-1]] = value
	return nil
}

// pruneNils drops keys left empty in YAML, and sections that end up empty,
// so they cannot blank out lower layers.
func pruneNils(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
		case map[string]any:
			if nested := pruneNils(val); len(nested) > 0 {
				out[k] = nested
			}
		default:
			out[k] = val
		}
	}
	return out
}
