// Package alert persists Alert records and dispatches them to every
// configured Alerter (Slack, Discord, or a generic JSON webhook)
package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/google/uuid"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// Store persists and looks up Alert documents.
type Store interface {
	InsertAlert(ctx context.Context, a *models.Alert) error
	SaveAlert(ctx context.Context, a *models.Alert) error
	FindUnresolvedAlert(ctx context.Context, target models.ResourceTarget, variant models.AlertVariant) (*models.Alert, error)
}

// AlerterLookup returns every enabled Alerter, used to resolve dispatch
// targets for each incoming Alert.
type AlerterLookup interface {
	EnabledAlerters(ctx context.Context) ([]models.Alerter, error)
}

// Endpoint sends one rendered Alert to one configured Alerter's destination.
type Endpoint interface {
	Send(ctx context.Context, cfg models.AlerterConfig, alert models.Alert) error
}

const dispatchTimeout = 10 * time.Second

// Pipeline is the AlertSink pkg/monitor's scheduler emits into: it persists
// the alert (resolving a matching prior alert when this one is an Ok-level
// resolution), then fans out to every accepting Alerter concurrently.
type Pipeline struct {
	Store     Store
	Alerters  AlerterLookup
	Endpoints map[models.AlerterEndpointKind]Endpoint
	Timeout   time.Duration

	mu         sync.Mutex
	inFlight   mapset.Set
}

func NewPipeline(store Store, alerters AlerterLookup) *Pipeline {
	return &Pipeline{
		Store:     store,
		Alerters:  alerters,
		Endpoints: make(map[models.AlerterEndpointKind]Endpoint),
		Timeout:   dispatchTimeout,
		inFlight:  mapset.NewSet(),
	}
}

// Emit implements pkg/monitor.AlertSink. A zero ID is stamped from a fresh
// uuid; callers (and tests) may pre-set ID to make the call idempotent.
func (p *Pipeline) Emit(ctx context.Context, a models.Alert) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	key := a.Target.String() + ":" + string(a.Variant)
	if !p.claim(key) {
		return
	}
	defer p.release(key)

	if err := p.persist(ctx, &a); err != nil {
		slog.Error("alert: failed to persist alert", "target", a.Target, "variant", a.Variant, "error", err)
		return
	}

	p.dispatch(ctx, a)
}

// claim prevents two concurrent Emit calls for the same (target, variant)
// pair from racing each other's resolve-lookup-then-insert sequence.
func (p *Pipeline) claim(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight.Contains(key) {
		return false
	}
	p.inFlight.Add(key)
	return true
}

func (p *Pipeline) release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight.Remove(key)
}

// persist resolves a matching unresolved alert when a is an Ok-level
// resolution, otherwise inserts a as a new unresolved alert.
func (p *Pipeline) persist(ctx context.Context, a *models.Alert) error {
	if a.Level != models.SeverityOk {
		return p.Store.InsertAlert(ctx, a)
	}

	prior, err := p.Store.FindUnresolvedAlert(ctx, a.Target, a.Variant)
	if err != nil {
		return err
	}
	if prior == nil {
		return p.Store.InsertAlert(ctx, a)
	}
	prior.Resolved = true
	prior.ResolvedTs = a.Ts
	*a = *prior
	return p.Store.SaveAlert(ctx, prior)
}

func (p *Pipeline) dispatch(ctx context.Context, a models.Alert) {
	alerters, err := p.Alerters.EnabledAlerters(ctx)
	if err != nil {
		slog.Error("alert: failed to load alerters", "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, alerter := range alerters {
		if !alerter.Config.Accepts(a.Target, a.Variant) {
			continue
		}
		endpoint := p.Endpoints[alerter.Config.Kind]
		if endpoint == nil {
			continue
		}

		wg.Add(1)
		go func(name string, cfg models.AlerterConfig) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, p.Timeout)
			defer cancel()
			if err := endpoint.Send(sendCtx, cfg, a); err != nil {
				slog.Error("alert: dispatch failed", "alerter", name, "variant", a.Variant, "error", err)
			}
		}(alerter.Name, alerter.Config)
	}
	wg.Wait()
}
