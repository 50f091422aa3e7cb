package vm

import (
	"context"
	"fmt"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/config"
	"github.com/BYEONGHWALEE-dev/cloud-service/hypervisor"
	"github.com/BYEONGHWALEE-dev/cloud-service/lock"
	"github.com/BYEONGHWALEE-dev/cloud-service/metrics"
	"github.com/BYEONGHWALEE-dev/cloud-service/network"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
	"github.com/BYEONGHWALEE-dev/cloud-service/vmstore"
)

// Manager drives the VM lifecycle: it is the only component that talks to
// both the hypervisor and the record store.
type Manager struct {
	conf   *config.Config
	hyper  hypervisor.Hypervisor
	alloc  network.Allocator
	store  vmstore.Store
	locker lock.Locker // guards remote id + address reservation
}

// New wires a Manager. locker must be shared by every process using store.
func New(conf *config.Config, hyper hypervisor.Hypervisor, alloc network.Allocator, store vmstore.Store, locker lock.Locker) (*Manager, error) {
	switch {
	case conf == nil:
		return nil, fmt.Errorf("config is nil")
	case hyper == nil, alloc == nil, store == nil, locker == nil:
		return nil, fmt.Errorf("hypervisor, allocator, store and locker are required")
	}
	return &Manager{conf: conf, hyper: hyper, alloc: alloc, store: store, locker: locker}, nil
}

// List returns summaries of the owner's VMs, or every VM when ownerID is empty.
// It reads local records only.
func (m *Manager) List(ctx context.Context, ownerID string) ([]*types.VMSummary, error) {
	vms, err := m.store.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]*types.VMSummary, 0, len(vms))
	for _, vm := range vms {
		out = append(out, vm.Summary())
	}
	return out, nil
}

// Monitor returns live resource usage. Unlike Inspect, remote failures are
// returned to the caller.
func (m *Manager) Monitor(ctx context.Context, id int64) (*types.ResourceUsage, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := m.hyper.Status(ctx, rec.RemoteID)
	if err != nil {
		return nil, fmt.Errorf("monitor VM %d: %w", id, err)
	}
	return types.NewResourceUsage(rec.ID, rec.RemoteID, st), nil
}

// PoolUsage reports address pool occupancy and publishes it as a metric.
func (m *Manager) PoolUsage(ctx context.Context) (types.PoolUsage, error) {
	u, err := m.alloc.Usage(ctx)
	if err != nil {
		return u, err
	}
	metrics.SetPoolUsage(u)
	return u, nil
}

// await waits for a hypervisor task and turns a non-OK outcome into an error.
func (m *Manager) await(ctx context.Context, handle types.TaskHandle, timeout time.Duration, op string) error {
	res, err := m.hyper.AwaitTask(ctx, handle, timeout)
	if err != nil {
		return fmt.Errorf("%s task: %w", op, err)
	}
	if !res.OK() {
		log.WithFunc("vm.await").Warnf(ctx, "%s task %s ended %s", op, handle, res)
		return fmt.Errorf("%w: %s task %s", types.ErrRemoteUnavailable, op, res)
	}
	return nil
}
