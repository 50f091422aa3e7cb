package vm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/metrics"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

// Delete destroys the remote VM (stopping it first if it runs) and then
// removes the record, which frees its address. A VM already gone from the
// hypervisor counts as destroyed. Any other remote failure keeps the record
// so the delete can be retried.
func (m *Manager) Delete(ctx context.Context, id int64) (err error) {
	defer func() { metrics.ObserveOp("delete", err) }()
	logger := log.WithFunc("vm.Delete")

	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status == types.VMStatusCreating {
		return fmt.Errorf("%w: VM %d is still being created", types.ErrConflict, id)
	}
	if err := m.destroyRemote(ctx, rec); err != nil {
		return fmt.Errorf("delete VM %d: %w", id, err)
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete VM %d record: %w", id, err)
	}
	logger.Infof(ctx, "VM %d (%s) deleted, address %s released", id, rec.Name, rec.Address)
	return nil
}

// DeleteAll deletes each VM best-effort and returns the ids that succeeded.
func (m *Manager) DeleteAll(ctx context.Context, ids []int64) ([]int64, error) {
	return forEachVM(ctx, ids, "delete", m.Delete)
}

func (m *Manager) destroyRemote(ctx context.Context, rec *types.VM) error {
	logger := log.WithFunc("vm.destroyRemote")
	timeout := m.conf.Proxmox.ControlTimeout()

	st, err := m.hyper.Status(ctx, rec.RemoteID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		logger.Warnf(ctx, "remote VM %d already gone", rec.RemoteID)
		return nil
	case err != nil:
		return err
	}

	if strings.EqualFold(st.Status, string(types.VMStatusRunning)) {
		handle, err := m.hyper.Stop(ctx, rec.RemoteID)
		if err != nil {
			return fmt.Errorf("stop before delete: %w", err)
		}
		if err := m.await(ctx, handle, timeout, "stop"); err != nil {
			return fmt.Errorf("stop before delete: %w", err)
		}
	}

	handle, err := m.hyper.Delete(ctx, rec.RemoteID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	return m.await(ctx, handle, timeout, "delete")
}
