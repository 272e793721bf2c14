package config

import (
	"context"
	"sync"

	"github.com/lendflow/lendflow/pkg/logger"
)

type managerKey struct{}

func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, m)
}

var (
	fallback     *Manager
	fallbackOnce sync.Once
)

// ManagerFromContext returns the manager the CLI attached, or a process-wide
// one built from defaults and the environment for code running outside a
// command, such as tests.
func ManagerFromContext(ctx context.Context) *Manager {
	if ctx != nil {
		if m, ok := ctx.Value(managerKey{}).(*Manager); ok && m != nil {
			return m
		}
	}
	fallbackOnce.Do(func() {
		m := NewManager(NewService())
		if _, err := m.Load(ctx, NewDefaultProvider(), NewEnvProvider()); err != nil {
			logger.FromContext(ctx).Warn("Environment configuration invalid, using built-in defaults", "error", err)
			m.applyConfig(Default())
		}
		fallback = m
	})
	return fallback
}

// FromContext is shorthand for ManagerFromContext(ctx).Get().
func FromContext(ctx context.Context) *Config {
	return ManagerFromContext(ctx).Get()
}
