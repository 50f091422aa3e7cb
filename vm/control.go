package vm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/metrics"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

type remoteOp func(context.Context, int) (types.TaskHandle, error)

// Start powers on a VM and records it as running once the task completes.
func (m *Manager) Start(ctx context.Context, id int64) (*types.VMSummary, error) {
	return m.control(ctx, "start", id, m.hyper.Start, types.VMStatusRunning)
}

// Stop powers off a VM and records it as stopped once the task completes.
func (m *Manager) Stop(ctx context.Context, id int64) (*types.VMSummary, error) {
	return m.control(ctx, "stop", id, m.hyper.Stop, types.VMStatusStopped)
}

// StartAll starts each VM best-effort and returns the ids that succeeded.
func (m *Manager) StartAll(ctx context.Context, ids []int64) ([]int64, error) {
	return forEachVM(ctx, ids, "start", func(ctx context.Context, id int64) error {
		_, err := m.Start(ctx, id)
		return err
	})
}

// StopAll stops each VM best-effort and returns the ids that succeeded.
func (m *Manager) StopAll(ctx context.Context, ids []int64) ([]int64, error) {
	return forEachVM(ctx, ids, "stop", func(ctx context.Context, id int64) error {
		_, err := m.Stop(ctx, id)
		return err
	})
}

// control runs a power operation. On any failure the stored status is left
// untouched.
func (m *Manager) control(ctx context.Context, op string, id int64, call remoteOp, target types.VMStatus) (_ *types.VMSummary, err error) {
	defer func() { metrics.ObserveOp(op, err) }()

	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == types.VMStatusCreating {
		return nil, fmt.Errorf("%w: VM %d is still being created", types.ErrConflict, id)
	}

	handle, err := call(ctx, rec.RemoteID)
	if err != nil {
		return nil, fmt.Errorf("%s VM %d: %w", op, id, err)
	}
	if err := m.await(ctx, handle, m.conf.Proxmox.ControlTimeout(), op); err != nil {
		return nil, fmt.Errorf("%s VM %d: %w", op, id, err)
	}

	now := time.Now()
	updated, err := m.store.Update(ctx, id, func(vm *types.VM) error {
		vm.Status = target
		vm.StatusReason = ""
		vm.LastSyncedAt = &now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record %s of VM %d: %w", op, id, err)
	}
	log.WithFunc("vm."+op).Infof(ctx, "VM %d (%s) %s", id, rec.Name, updated.Status)
	return updated.Summary(), nil
}

// forEachVM runs fn for each ID, collects successes, and logs failures.
// All IDs are attempted; the returned slice is valid even when err != nil.
func forEachVM(ctx context.Context, ids []int64, op string, fn func(context.Context, int64) error) ([]int64, error) {
	logger := log.WithFunc("vm." + op)
	var succeeded []int64
	var errs []error
	for _, id := range ids {
		if err := fn(ctx, id); err != nil {
			logger.Warnf(ctx, "%s VM %d: %v", op, id, err)
			errs = append(errs, fmt.Errorf("VM %d: %w", id, err))
			continue
		}
		succeeded = append(succeeded, id)
	}
	return succeeded, errors.Join(errs...)
}
