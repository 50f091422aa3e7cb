package vm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

// Resolve turns a ref (numeric ID or exact name) into a VM ID. Names are not
// unique across owners, so a name matching several VMs is rejected.
func (m *Manager) Resolve(ctx context.Context, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if _, err := m.store.Get(ctx, id); err != nil {
			return 0, err
		}
		return id, nil
	}
	vms, err := m.store.List(ctx, "")
	if err != nil {
		return 0, err
	}
	return resolveName(vms, ref)
}

// ResolveAll resolves refs against one listing. Refs resolving to the same ID
// are deduplicated.
func (m *Manager) ResolveAll(ctx context.Context, refs []string) ([]int64, error) {
	vms, err := m.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]struct{}, len(vms))
	for _, vm := range vms {
		byID[vm.ID] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(refs))
	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		id, err := strconv.ParseInt(ref, 10, 64)
		if err == nil {
			if _, ok := byID[id]; !ok {
				return nil, fmt.Errorf("resolve %q: %w", ref, types.ErrNotFound)
			}
		} else if id, err = resolveName(vms, ref); err != nil {
			return nil, fmt.Errorf("resolve %q: %w", ref, err)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func resolveName(vms []*types.VM, name string) (int64, error) {
	var match int64
	for _, vm := range vms {
		if vm.Name != name {
			continue
		}
		if match != 0 {
			return 0, fmt.Errorf("%w: name %q matches several VMs, use the ID", types.ErrConflict, name)
		}
		match = vm.ID
	}
	if match == 0 {
		return 0, fmt.Errorf("VM %q: %w", name, types.ErrNotFound)
	}
	return match, nil
}
