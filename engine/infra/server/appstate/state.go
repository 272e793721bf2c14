package appstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	applicantuc "github.com/lendflow/lendflow/engine/applicant/uc"
	authuc "github.com/lendflow/lendflow/engine/auth/uc"
	billinguc "github.com/lendflow/lendflow/engine/billing/uc"
	documentuc "github.com/lendflow/lendflow/engine/document/uc"
	"github.com/lendflow/lendflow/engine/infra/monitoring"
	loanuc "github.com/lendflow/lendflow/engine/loan/uc"
	partyuc "github.com/lendflow/lendflow/engine/party/uc"
	verificationuc "github.com/lendflow/lendflow/engine/verification/uc"
)

type contextKey string

const stateKey contextKey = "app_state"

// CheckFunc reports whether a backing service is reachable.
type CheckFunc func(ctx context.Context) error

// Check is a named readiness probe.
type Check struct {
	Name string
	Fn   CheckFunc
}

// Factories groups the use case factories of every domain.
type Factories struct {
	Auth          *authuc.Factory
	Applicants    *applicantuc.Factory
	Parties       *partyuc.Factory
	Loans         *loanuc.Factory
	Documents     *documentuc.Factory
	Verifications *verificationuc.Factory
	Billing       *billinguc.Factory
}

func (f Factories) Validate() error {
	switch {
	case f.Auth == nil:
		return fmt.Errorf("auth factory is required")
	case f.Applicants == nil:
		return fmt.Errorf("applicant factory is required")
	case f.Parties == nil:
		return fmt.Errorf("party factory is required")
	case f.Loans == nil:
		return fmt.Errorf("loan factory is required")
	case f.Documents == nil:
		return fmt.Errorf("document factory is required")
	case f.Verifications == nil:
		return fmt.Errorf("verification factory is required")
	case f.Billing == nil:
		return fmt.Errorf("billing factory is required")
	}
	return nil
}

type State struct {
	Factories
	Monitoring *monitoring.Service

	mu     sync.RWMutex
	checks []Check
	ready  bool
}

func NewState(factories Factories, mon *monitoring.Service) (*State, error) {
	if err := factories.Validate(); err != nil {
		return nil, err
	}
	return &State{Factories: factories, Monitoring: mon}, nil
}

// AddCheck registers a readiness probe. Names must be unique.
func (s *State) AddCheck(name string, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.checks {
		if s.checks[i].Name == name {
			s.checks[i].Fn = fn
			return
		}
	}
	s.checks = append(s.checks, Check{Name: name, Fn: fn})
}

func (s *State) Checks() []Check {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Check, len(s.checks))
	copy(out, s.checks)
	return out
}

// SetReady flips once the HTTP listener is up and back off during shutdown.
func (s *State) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// DomainMetrics is nil when monitoring is disabled.
func (s *State) DomainMetrics() *monitoring.DomainMetrics {
	if s.Monitoring == nil {
		return nil
	}
	return s.Monitoring.Domain()
}

func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey, state)
}

func GetState(ctx context.Context) (*State, error) {
	state, ok := ctx.Value(stateKey).(*State)
	if !ok {
		return nil, fmt.Errorf("app state not found in context")
	}
	return state, nil
}

func StateMiddleware(state *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithState(c.Request.Context(), state)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
