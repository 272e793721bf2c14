package config

import (
	"reflect"
	"sync"

	"github.com/lendflow/lendflow/pkg/config/definition"
)

// envIndex is built once from the Config struct tags and the definition
// registry. Struct tags win when both name a variable for the same path.
type envIndex struct {
	pathByEnv map[string]string
	envByPath map[string]string
	secrets   map[string]bool
}

var (
	index     *envIndex
	indexOnce sync.Once
)

var sensitiveType = reflect.TypeOf(SensitiveString(""))

func loadEnvIndex() *envIndex {
	indexOnce.Do(func() {
		idx := &envIndex{
			pathByEnv: map[string]string{},
			envByPath: map[string]string{},
			secrets:   map[string]bool{},
		}
		walkConfig(reflect.TypeOf(Config{}), "", func(path string, f reflect.StructField) {
			if f.Type == sensitiveType || f.Tag.Get("sensitive") == "true" {
				idx.secrets[path] = true
			}
			if name := f.Tag.Get("env"); name != "" && name != "-" {
				idx.add(name, path)
			}
		})
		for path, field := range definition.CreateRegistry().GetAllFields() {
			if _, tagged := idx.envByPath[path]; !tagged && field.EnvVar != "" {
				idx.add(field.EnvVar, path)
			}
		}
		index = idx
	})
	return index
}

func (x *envIndex) add(name, path string) {
	x.pathByEnv[name] = path
	x.envByPath[path] = name
}

// walkConfig calls visit for every koanf-tagged leaf and section under t.
func walkConfig(t reflect.Type, prefix string, visit func(path string, f reflect.StructField)) {
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if !f.IsExported() || tag == "" || tag == "-" {
			continue
		}
		path := tag
		if prefix != "" {
			path = prefix + "." + tag
		}
		visit(path, f)
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() != "time" {
			walkConfig(f.Type, path, visit)
		}
	}
}

// EnvVars maps every bound environment variable to its config path.
func EnvVars() map[string]string {
	src := loadEnvIndex().pathByEnv
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// EnvVarFor returns the variable bound to path, or "".
func EnvVarFor(path string) string {
	return loadEnvIndex().envByPath[path]
}

// IsSensitivePath reports whether path holds a secret that must be redacted
// in output such as `lendflow config show`.
func IsSensitivePath(path string) bool {
	return loadEnvIndex().secrets[path]
}
