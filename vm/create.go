package vm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/lock"
	"github.com/BYEONGHWALEE-dev/cloud-service/metrics"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

const rollbackTimeout = 30 * time.Second

// Create provisions a VM: validate, reserve a remote id and address under
// the allocation lock as a creating placeholder, clone the template, apply
// configuration best-effort, then confirm the record as stopped (or error
// with the collected reason).
func (m *Manager) Create(ctx context.Context, req *types.CreateRequest) (_ *types.CreateResult, err error) {
	defer func() { metrics.ObserveOp("create", err) }()
	logger := log.WithFunc("vm.Create")

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := m.store.FindByID(ctx, req.OwnerID); err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	rec, err := m.reserve(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.Infof(ctx, "VM %d reserved remote id %d, address %s", rec.ID, rec.RemoteID, rec.Address)

	if err := m.cloneTemplate(ctx, rec); err != nil {
		m.rollbackCreate(ctx, rec)
		return nil, err
	}

	status, reason := types.VMStatusStopped, ""
	if errs := m.configure(ctx, rec); len(errs) > 0 {
		status, reason = types.VMStatusError, joinReasons(errs)
		logger.Warnf(ctx, "VM %d configured with errors: %s", rec.ID, reason)
	}

	confirmed, err := m.store.Update(ctx, rec.ID, func(vm *types.VM) error {
		vm.Status = status
		vm.StatusReason = reason
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("confirm VM %d: %w", rec.ID, err)
	}
	logger.Infof(ctx, "VM %d (%s) created: %s", confirmed.ID, confirmed.Name, confirmed.Status)

	return &types.CreateResult{
		ID:       confirmed.ID,
		RemoteID: confirmed.RemoteID,
		Name:     confirmed.Name,
		Address:  confirmed.Address,
		Status:   confirmed.Status,
		Reason:   confirmed.StatusReason,
	}, nil
}

// reserve picks the remote id and address and records them as a creating
// placeholder, all inside the allocation critical section.
func (m *Manager) reserve(ctx context.Context, req *types.CreateRequest) (*types.VM, error) {
	var rec *types.VM
	err := lock.WithLock(ctx, m.locker, func() error {
		remoteID, err := m.nextRemoteID(ctx)
		if err != nil {
			return fmt.Errorf("pick remote id: %w", err)
		}
		addr, err := m.alloc.Allocate(ctx)
		if err != nil {
			return err
		}
		rec, err = m.store.Create(ctx, &types.VM{
			RemoteID: remoteID,
			Name:     req.Name,
			Address:  addr,
			Status:   types.VMStatusCreating,
			OwnerID:  req.OwnerID,
			Spec:     req.Spec(),
			Credential: types.SSHCredential{
				Username:  m.conf.DefaultSSHUser,
				PublicKey: strings.TrimSpace(req.SSHPublicKey),
			},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reserve: %w", err)
	}
	return rec, nil
}

// nextRemoteID skips ids already held locally, which covers placeholders
// whose clone has not reached the hypervisor's list yet.
func (m *Manager) nextRemoteID(ctx context.Context) (int, error) {
	id, err := m.hyper.NextVMID(ctx)
	if err != nil {
		return 0, err
	}
	used, err := m.store.UsedRemoteIDs(ctx)
	if err != nil {
		return 0, err
	}
	for {
		if _, taken := used[id]; !taken {
			return id, nil
		}
		id++
	}
}

func (m *Manager) cloneTemplate(ctx context.Context, rec *types.VM) error {
	handle, err := m.hyper.Clone(ctx, rec.RemoteID, rec.Name)
	if err != nil {
		return fmt.Errorf("clone VM %d: %w", rec.RemoteID, err)
	}
	if err := m.await(ctx, handle, m.conf.Proxmox.CloneTimeout(), "clone"); err != nil {
		return fmt.Errorf("clone VM %d: %w", rec.RemoteID, err)
	}
	return nil
}

// configure applies spec, disk and network settings. Every step is
// attempted; the failures are returned together.
func (m *Manager) configure(ctx context.Context, rec *types.VM) []error {
	var errs []error
	if err := m.hyper.ApplySpec(ctx, rec.RemoteID, rec.Spec.CPUCores, rec.Spec.MemoryMB); err != nil {
		errs = append(errs, fmt.Errorf("apply spec: %w", err))
	}
	if rec.Spec.DiskGB > m.conf.Proxmox.TemplateDiskGB {
		if err := m.hyper.ResizeDisk(ctx, rec.RemoteID, rec.Spec.DiskGB); err != nil {
			errs = append(errs, fmt.Errorf("resize disk to %dG: %w", rec.Spec.DiskGB, err))
		}
	}
	if rec.Credential.PublicKey != "" {
		if err := m.hyper.ConfigureNetwork(ctx, rec.RemoteID, rec.Address, rec.Credential.PublicKey); err != nil {
			errs = append(errs, fmt.Errorf("configure network: %w", err))
		}
	}
	return errs
}

// rollbackCreate removes the placeholder after a failed clone. It runs on a
// context detached from the caller so a cancelled create still cleans up.
func (m *Manager) rollbackCreate(ctx context.Context, rec *types.VM) {
	logger := log.WithFunc("vm.rollbackCreate")
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if err := m.store.Delete(ctx, rec.ID); err != nil && !errors.Is(err, types.ErrNotFound) {
		logger.Warnf(ctx, "remove placeholder VM %d: %v; gc will collect it", rec.ID, err)
	}
	logger.Warnf(ctx, "create of VM %d aborted; remote VM %d (%s) may remain on the hypervisor", rec.ID, rec.RemoteID, rec.Name)
}

func joinReasons(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
