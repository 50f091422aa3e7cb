package vm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

// Inspect returns the VM's summary after reconciling its status with the
// hypervisor. When the hypervisor cannot be reached the stored status is
// returned as is; this is not an error.
func (m *Manager) Inspect(ctx context.Context, id int64) (*types.VMSummary, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.sync(ctx, rec).Summary(), nil
}

// MapRemoteStatus converts a hypervisor status string into a local status.
// An empty string means the remote VM does not exist.
func MapRemoteStatus(remote string) types.VMStatus {
	switch strings.ToLower(strings.TrimSpace(remote)) {
	case "running":
		return types.VMStatusRunning
	case "stopped":
		return types.VMStatusStopped
	default:
		return types.VMStatusError
	}
}

// sync reconciles one record and returns the freshest copy it has. Creating
// placeholders are owned by the create workflow and skipped.
func (m *Manager) sync(ctx context.Context, rec *types.VM) *types.VM {
	if rec.Status == types.VMStatusCreating {
		return rec
	}
	logger := log.WithFunc("vm.sync")

	var remote string
	st, err := m.hyper.Status(ctx, rec.RemoteID)
	switch {
	case err == nil:
		remote = st.Status
	case errors.Is(err, types.ErrNotFound):
		logger.Warnf(ctx, "VM %d: remote VM %d not found", rec.ID, rec.RemoteID)
	default:
		logger.Warnf(ctx, "VM %d: keeping stored status %s: %v", rec.ID, rec.Status, err)
		return rec
	}

	status := MapRemoteStatus(remote)
	reason := ""
	if status == types.VMStatusError {
		reason = remoteReason(remote)
	}
	if status == rec.Status && (status != types.VMStatusError || reason == rec.StatusReason) {
		return rec
	}

	now := time.Now()
	updated, err := m.store.Update(ctx, rec.ID, func(vm *types.VM) error {
		if vm.Status == types.VMStatusCreating {
			return errSkipSync
		}
		vm.Status = status
		vm.StatusReason = reason
		vm.LastSyncedAt = &now
		return nil
	})
	if err != nil {
		if !errors.Is(err, errSkipSync) {
			logger.Warnf(ctx, "VM %d: persist status %s: %v", rec.ID, status, err)
		}
		return rec
	}
	logger.Infof(ctx, "VM %d: %s -> %s", rec.ID, rec.Status, status)
	return updated
}

var errSkipSync = errors.New("record changed during sync")

func remoteReason(remote string) string {
	if remote == "" {
		return "remote VM not found"
	}
	return fmt.Sprintf("hypervisor reports status %q", remote)
}
