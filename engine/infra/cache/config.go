package cache

import (
	"time"

	"github.com/lendflow/lendflow/pkg/config"
)

type Config struct {
	URL         string
	Addr        string
	Password    string
	DB          int
	Prefix      string
	PoolSize    int
	PingTimeout time.Duration
}

// FromAppConfig maps the redis section of the application config.
func FromAppConfig(cfg *config.RedisConfig) *Config {
	if cfg == nil {
		return &Config{}
	}
	return &Config{
		URL:      cfg.URL,
		Addr:     cfg.Addr,
		Password: cfg.Password.Value(),
		DB:       cfg.DB,
		Prefix:   cfg.Prefix,
	}
}
