package vm

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/gc"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

const (
	placeholderModule = "placeholders"
	orphanModule      = "orphans"
)

// recordSnapshot is what the record store holds at GC time.
type recordSnapshot struct {
	remoteIDs map[string]struct{} // every remote id with a local record
	stale     []string            // creating placeholders past the age limit
}

// TrackedRemoteIDs implements the gc.RemoteIDs protocol.
func (s recordSnapshot) TrackedRemoteIDs() map[string]struct{} { return s.remoteIDs }

// remoteSnapshot lists the hypervisor's VMs, template excluded.
type remoteSnapshot struct {
	ids []string
}

// PlaceholderModule collects creating placeholders left behind by a create
// that never finished (for example a crash between reserve and confirm).
// They hold an address until removed.
func (m *Manager) PlaceholderModule() gc.Module[recordSnapshot] {
	return gc.Module[recordSnapshot]{
		Name:   placeholderModule,
		Locker: m.locker,
		ReadDB: func(ctx context.Context) (recordSnapshot, error) {
			vms, err := m.store.List(ctx, "")
			if err != nil {
				return recordSnapshot{}, err
			}
			snap := recordSnapshot{remoteIDs: make(map[string]struct{}, len(vms))}
			for _, vm := range vms {
				snap.remoteIDs[strconv.Itoa(vm.RemoteID)] = struct{}{}
				if m.isStale(vm) {
					snap.stale = append(snap.stale, strconv.FormatInt(vm.ID, 10))
				}
			}
			return snap, nil
		},
		Resolve: func(snap recordSnapshot, _ map[string]any) []string {
			return snap.stale
		},
		Collect: func(ctx context.Context, ids []string) error {
			logger := log.WithFunc("vm.gc.placeholders")
			var errs []error
			for _, ref := range ids {
				id, err := strconv.ParseInt(ref, 10, 64)
				if err != nil {
					continue
				}
				vm, err := m.store.Get(ctx, id)
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if !m.isStale(vm) {
					continue
				}
				if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, types.ErrNotFound) {
					errs = append(errs, err)
					continue
				}
				logger.Infof(ctx, "removed stale placeholder VM %d (%s), address %s released", vm.ID, vm.Name, vm.Address)
			}
			return errors.Join(errs...)
		},
	}
}

// OrphanModule reports hypervisor VMs no local record tracks. They are only
// logged: such a VM may belong to someone else on the same node.
func (m *Manager) OrphanModule() gc.Module[remoteSnapshot] {
	return gc.Module[remoteSnapshot]{
		Name: orphanModule,
		ReadDB: func(ctx context.Context) (remoteSnapshot, error) {
			remote, err := m.hyper.List(ctx)
			if err != nil {
				return remoteSnapshot{}, err
			}
			var snap remoteSnapshot
			for _, r := range remote {
				if r.Template != 0 || r.VMID == m.conf.Proxmox.TemplateVMID {
					continue
				}
				snap.ids = append(snap.ids, strconv.Itoa(r.VMID))
			}
			return snap, nil
		},
		Resolve: func(snap remoteSnapshot, others map[string]any) []string {
			if _, ok := others[placeholderModule]; !ok {
				return nil
			}
			tracked := gc.Collect(others, gc.RemoteIDs)
			var orphans []string
			for _, id := range snap.ids {
				if _, ok := tracked[id]; !ok {
					orphans = append(orphans, id)
				}
			}
			return orphans
		},
		Collect: func(ctx context.Context, ids []string) error {
			logger := log.WithFunc("vm.gc.orphans")
			for _, id := range ids {
				logger.Warnf(ctx, "remote VM %s has no local record", id)
			}
			return nil
		},
	}
}

// RegisterGC registers the VM GC modules with the given Orchestrator.
func (m *Manager) RegisterGC(orch *gc.Orchestrator) {
	gc.Register(orch, m.PlaceholderModule())
	gc.Register(orch, m.OrphanModule())
}

func (m *Manager) isStale(vm *types.VM) bool {
	return vm.Status == types.VMStatusCreating && time.Since(vm.CreatedAt) > m.conf.StaleCreatingAge()
}
