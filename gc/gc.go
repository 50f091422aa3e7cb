// Package gc runs garbage collection across independent modules. Each module
// snapshots its state, then decides what to collect with every other
// module's snapshot in view, so cross-module references are honoured.
package gc

import (
	"context"
	"errors"
	"fmt"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/lock"
)

// Module is one GC participant over snapshot type S.
//
// ReadDB runs under Locker and captures state. Resolve is pure: it receives
// this module's snapshot plus the others keyed by module name and returns the
// IDs to collect. Collect runs under Locker again and must re-check each ID,
// since state may have moved between the two phases.
type Module[S any] struct {
	Name    string
	Locker  lock.Locker // optional
	ReadDB  func(ctx context.Context) (S, error)
	Resolve func(snap S, others map[string]any) []string
	Collect func(ctx context.Context, ids []string) error
}

type runner interface {
	name() string
	read(ctx context.Context) (any, error)
	resolve(snap any, others map[string]any) []string
	collect(ctx context.Context, ids []string) error
}

func (m Module[S]) name() string { return m.Name }

func (m Module[S]) read(ctx context.Context) (any, error) {
	var snap S
	err := m.locked(ctx, func() error {
		var err error
		snap, err = m.ReadDB(ctx)
		return err
	})
	return snap, err
}

func (m Module[S]) resolve(snap any, others map[string]any) []string {
	return m.Resolve(snap.(S), others)
}

func (m Module[S]) collect(ctx context.Context, ids []string) error {
	return m.locked(ctx, func() error { return m.Collect(ctx, ids) })
}

func (m Module[S]) locked(ctx context.Context, fn func() error) error {
	if m.Locker == nil {
		return fn()
	}
	return lock.WithLock(ctx, m.Locker, fn)
}

// Orchestrator drives registered modules through read, resolve and collect.
type Orchestrator struct {
	modules []runner
}

// New returns an empty Orchestrator.
func New() *Orchestrator {
	return &Orchestrator{}
}

// Register adds m. Names must be unique.
func Register[S any](o *Orchestrator, m Module[S]) {
	o.modules = append(o.modules, m)
}

// Run executes one GC cycle. A module whose snapshot fails is skipped but
// the others still run; all errors are returned joined.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := log.WithFunc("gc.Run")

	snaps := make(map[string]any, len(o.modules))
	var errs []error
	for _, m := range o.modules {
		if _, dup := snaps[m.name()]; dup {
			return fmt.Errorf("gc module %q registered twice", m.name())
		}
		snap, err := m.read(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: read: %w", m.name(), err))
			continue
		}
		snaps[m.name()] = snap
	}

	for _, m := range o.modules {
		snap, ok := snaps[m.name()]
		if !ok {
			continue
		}
		others := make(map[string]any, len(snaps)-1)
		for name, s := range snaps {
			if name != m.name() {
				others[name] = s
			}
		}
		ids := m.resolve(snap, others)
		if len(ids) == 0 {
			continue
		}
		logger.Infof(ctx, "%s: collecting %d item(s)", m.name(), len(ids))
		if err := m.collect(ctx, ids); err != nil {
			errs = append(errs, fmt.Errorf("%s: collect: %w", m.name(), err))
		}
	}
	return errors.Join(errs...)
}
