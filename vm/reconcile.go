package vm

import (
	"context"
	"time"

	"github.com/projecteru2/core/log"
	"golang.org/x/sync/errgroup"

	"github.com/BYEONGHWALEE-dev/cloud-service/metrics"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

// ReconcileAll syncs every record with the hypervisor, at most PoolSize at a
// time, and returns the resulting per-status counts. Per-VM failures are
// logged by sync and never abort the pass.
func (m *Manager) ReconcileAll(ctx context.Context) (map[types.VMStatus]int, error) {
	vms, err := m.store.List(ctx, "")
	if err != nil {
		return nil, err
	}

	statuses := make([]types.VMStatus, len(vms))
	var g errgroup.Group
	g.SetLimit(max(m.conf.PoolSize, 1))
	for i, rec := range vms {
		g.Go(func() error {
			statuses[i] = m.sync(ctx, rec).Status
			return nil
		})
	}
	_ = g.Wait()

	counts := make(map[types.VMStatus]int, 4)
	for _, s := range statuses {
		counts[s]++
	}
	metrics.SetVMCounts(counts)
	if _, err := m.PoolUsage(ctx); err != nil {
		log.WithFunc("vm.ReconcileAll").Warnf(ctx, "pool usage: %v", err)
	}
	return counts, nil
}

// Reconciler runs ReconcileAll periodically. A zero interval pauses it.
type Reconciler struct {
	m       *Manager
	updates chan time.Duration
}

// NewReconciler returns a Reconciler bound to m.
func (m *Manager) NewReconciler() *Reconciler {
	return &Reconciler{m: m, updates: make(chan time.Duration, 1)}
}

// RunReconciler blocks, reconciling every interval until ctx is done.
func (m *Manager) RunReconciler(ctx context.Context, interval time.Duration) error {
	return m.NewReconciler().Run(ctx, interval)
}

// SetInterval changes the period of a running Reconciler. Only the latest
// pending value is kept.
func (r *Reconciler) SetInterval(d time.Duration) {
	for {
		select {
		case r.updates <- d:
			return
		default:
		}
		select {
		case <-r.updates:
		default:
		}
	}
}

// Run reconciles once immediately, then on every tick until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) error {
	logger := log.WithFunc("vm.Reconciler")

	var ticker *time.Ticker
	var tick <-chan time.Time
	reset := func(d time.Duration) {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if d > 0 {
			ticker = time.NewTicker(d)
			tick = ticker.C
		}
	}
	reset(interval)
	defer reset(0)

	if interval > 0 {
		r.pass(ctx)
	}
	logger.Infof(ctx, "reconciler started, interval %s", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Infof(ctx, "reconciler stopped")
			return nil
		case d := <-r.updates:
			reset(d)
			logger.Infof(ctx, "reconcile interval set to %s", d)
		case <-tick:
			r.pass(ctx)
		}
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	counts, err := r.m.ReconcileAll(ctx)
	if err != nil {
		log.WithFunc("vm.Reconciler").Warnf(ctx, "reconcile: %v", err)
		return
	}
	log.WithFunc("vm.Reconciler").Infof(ctx, "reconciled: %v", counts)
}
