package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/monitoring"
	"github.com/lendflow/lendflow/pkg/logger"
)

// Error taxonomy (router maps to HTTP later)
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)

const (
	defaultMaxBody   int64 = 1 << 20
	defaultDedupeTTL       = 24 * time.Hour
)

// Result is transport-agnostic processing outcome; router will translate to HTTP
type Result struct {
	Status  int
	Payload any
}

// Orchestrator coordinates body limits, signature verification, delivery
// deduplication and dispatch to the registered handler.
type Orchestrator struct {
	reg             Lookup
	verifierFactory func(VerifyConfig) (Verifier, error)
	idem            Service
	metrics         *monitoring.DomainMetrics
	maxBody         int64
}

// NewOrchestrator creates a new orchestrator with provided dependencies
func NewOrchestrator(reg Lookup, idem Service, metrics *monitoring.DomainMetrics, maxBody int64) *Orchestrator {
	o := &Orchestrator{reg: reg, idem: idem, metrics: metrics, maxBody: maxBody}
	o.verifierFactory = NewVerifier
	if o.maxBody <= 0 {
		o.maxBody = defaultMaxBody
	}
	return o
}

// Process executes the webhook pipeline for a given slug and request
func (o *Orchestrator) Process(ctx context.Context, slug string, r *http.Request) (Result, error) {
	entry, ok := o.reg.Get(slug)
	if !ok {
		return Result{Status: http.StatusNotFound}, ErrNotFound
	}
	body, rres, rerr := o.readBody(ctx, r)
	if rerr != nil {
		return rres, rerr
	}
	vres, verr := o.verify(ctx, entry, r, body)
	if verr != nil {
		o.metrics.WebhookEvent(ctx, "unknown", "invalid_signature")
		return vres, verr
	}
	key := DeriveKey(r.Header, entry.DedupeHeader, body)
	ires, ierr := o.checkIdempotency(ctx, entry, key)
	if ierr != nil {
		if errors.Is(ierr, ErrDuplicate) {
			o.metrics.WebhookEvent(ctx, "unknown", "duplicate")
			return Result{Status: http.StatusOK, Payload: map[string]any{"status": "duplicate"}}, nil
		}
		return ires, ierr
	}
	return o.dispatch(ctx, entry, key, body)
}

// ReadRawJSON reads at most maxBody bytes and requires a JSON document.
func ReadRawJSON(r io.Reader, maxBody int64) ([]byte, error) {
	if r == nil {
		return nil, errors.New("empty body")
	}
	b, err := io.ReadAll(io.LimitReader(r, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > maxBody {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBody)
	}
	if !json.Valid(bytes.TrimSpace(b)) {
		return nil, errors.New("body is not valid JSON")
	}
	return b, nil
}

func (o *Orchestrator) readBody(ctx context.Context, r *http.Request) ([]byte, Result, error) {
	log := logger.FromContext(ctx)
	b, err := ReadRawJSON(r.Body, o.maxBody)
	if err != nil {
		log.Warn("invalid webhook body", "error", err)
		return nil, Result{Status: http.StatusBadRequest}, ErrBadRequest
	}
	return b, Result{}, nil
}

func (o *Orchestrator) verify(ctx context.Context, entry RegistryEntry, r *http.Request, body []byte) (Result, error) {
	log := logger.FromContext(ctx)
	if entry.Verify.Strategy == "" || entry.Verify.Strategy == StrategyNone {
		return Result{}, nil
	}
	v, err := o.verifierFactory(entry.Verify)
	if err != nil {
		log.Error("verifier init failed", "error", err)
		return Result{Status: http.StatusInternalServerError}, err
	}
	if err = v.Verify(ctx, r, body); err != nil {
		log.Warn("signature verification failed", "error", err, "slug", entry.Slug)
		return Result{Status: http.StatusUnauthorized}, ErrUnauthorized
	}
	return Result{}, nil
}

func (o *Orchestrator) checkIdempotency(ctx context.Context, entry RegistryEntry, key string) (Result, error) {
	log := logger.FromContext(ctx)
	if o.idem == nil || key == "" {
		return Result{}, nil
	}
	ttl := entry.DedupeTTL
	if ttl <= 0 {
		ttl = defaultDedupeTTL
	}
	if err := o.idem.CheckAndSet(ctx, KeyWithNamespace(entry.Slug, key), ttl); err != nil {
		if errors.Is(err, ErrDuplicate) {
			log.Info("duplicate webhook delivery", "slug", entry.Slug, "key", key)
			return Result{}, ErrDuplicate
		}
		log.Error("idempotency check failed", "error", err)
		return Result{Status: http.StatusInternalServerError}, err
	}
	return Result{}, nil
}

// dispatch runs the handler. A failed delivery releases its key so the
// gateway's retry is processed instead of being reported as a duplicate.
func (o *Orchestrator) dispatch(ctx context.Context, entry RegistryEntry, key string, body []byte) (Result, error) {
	log := logger.FromContext(ctx)
	outcome, err := entry.Handler(ctx, body)
	event := outcome.Event
	if event == "" {
		event = "unknown"
	}
	if err != nil {
		o.metrics.WebhookEvent(ctx, event, "failed")
		if o.idem != nil && key != "" {
			if ferr := o.idem.Forget(ctx, KeyWithNamespace(entry.Slug, key)); ferr != nil {
				log.Warn("failed to release webhook key", "error", ferr)
			}
		}
		if errors.Is(err, core.ErrInvalidInput) || errors.Is(err, core.ErrNotFound) {
			log.Warn("webhook payload rejected", "error", err, "event", event)
			return Result{Status: http.StatusBadRequest}, ErrBadRequest
		}
		log.Error("webhook handler failed", "error", err, "event", event)
		return Result{Status: http.StatusInternalServerError}, err
	}
	if outcome.Ignored {
		o.metrics.WebhookEvent(ctx, event, "ignored")
		return Result{Status: http.StatusOK, Payload: map[string]any{"status": "ignored", "event": event}}, nil
	}
	o.metrics.WebhookEvent(ctx, event, "processed")
	return Result{Status: http.StatusOK, Payload: map[string]any{"status": "processed", "event": event}}, nil
}
