package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/listing-tracker/internal/metrics"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// Result summarizes one dispatch.
type Result struct {
	Matched int
	Failed  int
}

// Dispatcher routes a job's notification configs to registered adapters.
type Dispatcher struct {
	adapters map[string]Adapter
	log      *slog.Logger
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithAdapters registers adapters by their ID. Later registrations replace
// earlier ones with the same ID.
func WithAdapters(adapters ...Adapter) DispatcherOption {
	return func(d *Dispatcher) {
		for _, a := range adapters {
			d.adapters[a.ID()] = a
		}
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		adapters: make(map[string]Adapter),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Has reports whether an adapter with id is registered.
func (d *Dispatcher) Has(id string) bool {
	_, ok := d.adapters[id]
	return ok
}

// Dispatch sends listings to every configured adapter concurrently. Config
// entries naming unknown adapters are skipped. Every matched adapter is
// attempted; their failures are joined into the returned error.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	providerID string,
	listings []domain.Listing,
	configs []domain.NotificationConfig,
	jobID string,
) (Result, error) {
	type target struct {
		adapter Adapter
		config  domain.NotificationConfig
	}

	targets := make([]target, 0, len(configs))
	for _, cfg := range configs {
		a, ok := d.adapters[cfg.ID]
		if !ok {
			d.log.Debug("skipping unknown notification adapter", "adapter", cfg.ID, "job", jobID)
			continue
		}
		targets = append(targets, target{adapter: a, config: cfg})
	}

	res := Result{Matched: len(targets)}
	if len(targets) == 0 {
		return res, nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	// Adapters must not cancel each other, so the group's context is not
	// used and goroutines never return an error.
	var g errgroup.Group
	for _, t := range targets {
		g.Go(func() error {
			msg := Message{
				ServiceName: providerID,
				NewListings: listings,
				Config:      t.config,
				JobKey:      jobID,
			}
			if err := t.adapter.Send(ctx, msg); err != nil {
				metrics.NotificationFailuresTotal.WithLabelValues(t.adapter.ID()).Inc()
				mu.Lock()
				errs = append(errs, fmt.Errorf("adapter %s: %w", t.adapter.ID(), err))
				mu.Unlock()
				return nil
			}
			metrics.NotificationsSentTotal.WithLabelValues(t.adapter.ID()).Inc()
			return nil
		})
	}
	_ = g.Wait()

	res.Failed = len(errs)
	return res, errors.Join(errs...)
}
