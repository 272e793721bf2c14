package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/lendflow/lendflow/pkg/config/definition"
)

// Override records a key whose value came from somewhere other than the
// built-in defaults. Secrets carry a redacted value.
type Override struct {
	Key    string
	Source SourceType
	Value  string
}

// loader layers defaults, the caller's sources and finally the process
// environment into one koanf tree, remembering which layer set each key.
type loader struct {
	k        *koanf.Koanf
	validate *validator.Validate

	mu       sync.RWMutex
	origin   map[string]SourceType
	loadedAt time.Time
}

func NewService() Service {
	v := validator.New()
	if err := RegisterCustomValidators(v); err != nil {
		panic(fmt.Sprintf("registering config validators: %v", err))
	}
	return &loader{k: koanf.New("."), validate: v, origin: map[string]SourceType{}}
}

// Load applies sources in order, so later sources win. Environment variables
// are applied after all of them regardless of where SourceEnv appears.
func (l *loader) Load(_ context.Context, sources ...Source) (*Config, error) {
	l.k = koanf.New(".")
	l.mu.Lock()
	l.origin = map[string]SourceType{}
	l.loadedAt = time.Now()
	l.mu.Unlock()

	if err := l.layer(SourceDefault, structs.Provider(Default(), "koanf")); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	for _, src := range sources {
		if src == nil || src.Type() == SourceEnv {
			continue
		}
		data, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load from source %s: %w", src.Type(), err)
		}
		if len(data) == 0 {
			continue
		}
		if err := l.layer(src.Type(), rawMap(data)); err != nil {
			return nil, fmt.Errorf("failed to apply source %s: %w", src.Type(), err)
		}
	}
	if err := l.layer(SourceEnv, l.envProvider()); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return l.decode()
}

// layer merges p into the tree and attributes every new or changed key to
// kind.
func (l *loader) layer(kind SourceType, p koanf.Provider) error {
	before := l.k.All()
	if err := l.k.Load(p, nil); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, after := range l.k.All() {
		if prev, ok := before[key]; !ok || !reflect.DeepEqual(prev, after) {
			l.origin[key] = kind
		}
	}
	return nil
}

// envProvider reads bound variables first and falls back to SECTION_FIELD
// naming for any key the registry knows.
func (l *loader) envProvider() koanf.Provider {
	bound := loadEnvIndex().pathByEnv
	known := map[string]bool{}
	for _, path := range definition.CreateRegistry().Paths() {
		known[path] = true
	}
	return env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			if path, ok := bound[key]; ok {
				return path, value
			}
			if path := envKeyToPath(key); known[path] {
				return path, value
			}
			return "", nil
		},
	})
}

// envKeyToPath turns STORAGE_MAX_UPLOAD_BYTES into storage.max_upload_bytes.
// Empty segments from stray underscores are dropped.
func envKeyToPath(key string) string {
	parts := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool { return r == '_' })
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + "." + strings.Join(parts[1:], "_")
	}
}

func (l *loader) decode() (*Config, error) {
	var cfg Config
	err := l.k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				decodeSensitive,
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func decodeSensitive(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != sensitiveType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	}
	return data, nil
}

func (l *loader) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration cannot be nil")
	}
	if err := l.validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := crossCheck(cfg); err != nil {
		return fmt.Errorf("custom validation failed: %w", err)
	}
	return nil
}

func (l *loader) GetSource(key string) SourceType {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if kind, ok := l.origin[key]; ok {
		return kind
	}
	return SourceDefault
}

// Overrides lists non-default keys sorted by key.
func (l *loader) Overrides() []Override {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Override, 0)
	for key, kind := range l.origin {
		if kind == SourceDefault {
			continue
		}
		value := fmt.Sprint(l.k.Get(key))
		if IsSensitivePath(key) {
			value = redacted
		}
		out = append(out, Override{Key: key, Source: kind, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// crossCheck covers rules that span fields.
func crossCheck(cfg *Config) error {
	db := cfg.Database
	if db.ConnString == "" && (db.Host == "" || db.Port == "" || db.User == "" || db.DBName == "") {
		return errors.New("database configuration incomplete: either conn_string or individual components required")
	}
	if db.MinIdleConns > db.MaxOpenConns {
		return errors.New("database min_idle_conns cannot exceed max_open_conns")
	}
	if cfg.Redis.URL == "" && cfg.Redis.Addr == "" {
		return errors.New("redis configuration incomplete: either url or addr required")
	}
	if cfg.Runtime.Environment == "production" {
		if cfg.Auth.Enabled && cfg.Auth.JWTSecret == "" {
			return errors.New("auth jwt_secret is required in production")
		}
		if cfg.Billing.WebhookSecret == "" {
			return errors.New("billing webhook_secret is required in production")
		}
	}
	if cfg.Storage.PresignTTL <= 0 || cfg.Storage.PresignTTL > 7*24*time.Hour {
		return errors.New("storage presign_ttl must be between 1s and 168h")
	}
	return nil
}

// rawMap adapts an already parsed source to koanf.Provider.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) { return r, nil }

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, errors.New("rawMap does not support ReadBytes")
}
