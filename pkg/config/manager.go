package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/lendflow/lendflow/pkg/logger"
)

// Manager holds the active configuration and reloads it on demand.
type Manager struct {
	Service    Service
	current    atomic.Value // stores *Config
	sources    []Source
	callbacks  []func(*Config)
	callbackMu sync.RWMutex
	reloadMu   sync.Mutex
	closeOnce  sync.Once
}

// NewManager creates a new configuration manager.
func NewManager(service Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{
		Service:   service,
		callbacks: make([]func(*Config), 0),
	}
}

// Load loads configuration from sources and remembers them for Reload.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	m.reloadMu.Lock()
	m.sources = append([]Source(nil), sources...)
	m.reloadMu.Unlock()

	config, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m.applyConfig(config)
	return config, nil
}

// Get returns the current configuration atomically.
func (m *Manager) Get() *Config {
	config, ok := m.current.Load().(*Config)
	if !ok {
		return nil
	}
	return config
}

// Reload re-reads every source. The previous configuration stays active
// when the new one fails to load or validate.
func (m *Manager) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	newConfig, err := m.Service.Load(ctx, m.sources...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	if err := m.Service.Validate(newConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	m.applyConfig(newConfig)
	logger.FromContext(ctx).Info("configuration reloaded")
	return nil
}

// OnChange registers a callback to be invoked when configuration changes.
func (m *Manager) OnChange(callback func(*Config)) {
	m.callbackMu.Lock()
	defer m.callbackMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Close releases every source.
func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.reloadMu.Lock()
		sourcesCopy := append([]Source(nil), m.sources...)
		m.reloadMu.Unlock()
		for _, source := range sourcesCopy {
			if source == nil {
				continue
			}
			if err := source.Close(); err != nil {
				logger.FromContext(ctx).Error("failed to close configuration source", "error", err)
			}
		}
	})
	return nil
}

func (m *Manager) applyConfig(config *Config) {
	oldConfig := m.Get()
	m.current.Store(config)
	if oldConfig != nil && reflect.DeepEqual(oldConfig, config) {
		return
	}
	m.callbackMu.RLock()
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.callbackMu.RUnlock()
	for _, callback := range callbacks {
		if callback != nil {
			callback(config)
		}
	}
}
