package jsonstore

import (
	"fmt"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

// vmIndex is the top-level DB document.
type vmIndex struct {
	NextID  int64                   `json:"next_id"`
	VMs     map[int64]*types.VM     `json:"vms"`
	Members map[string]*types.Owner `json:"members"`

	// Secondary indexes, rebuilt on load.
	remoteIDs map[int]int64
	addresses map[string]int64
}

// Init implements storage.Initer.
func (idx *vmIndex) Init() {
	if idx.VMs == nil {
		idx.VMs = make(map[int64]*types.VM)
	}
	if idx.Members == nil {
		idx.Members = make(map[string]*types.Owner)
	}
	idx.remoteIDs = make(map[int]int64, len(idx.VMs))
	idx.addresses = make(map[string]int64, len(idx.VMs))
	for id, vm := range idx.VMs {
		if vm == nil {
			continue
		}
		idx.remoteIDs[vm.RemoteID] = id
		if vm.Address != "" {
			idx.addresses[vm.Address] = id
		}
	}
}

// checkUnique fails when a record other than self holds remoteID or address.
func (idx *vmIndex) checkUnique(self int64, remoteID int, address string) error {
	if other, ok := idx.remoteIDs[remoteID]; ok && other != self {
		return fmt.Errorf("%w: remote id %d already held by VM %d", types.ErrConflict, remoteID, other)
	}
	if address == "" {
		return nil
	}
	if other, ok := idx.addresses[address]; ok && other != self {
		return fmt.Errorf("%w: address %s already held by VM %d", types.ErrConflict, address, other)
	}
	return nil
}

func (idx *vmIndex) put(vm *types.VM) {
	if old := idx.VMs[vm.ID]; old != nil {
		idx.unindex(old)
	}
	idx.VMs[vm.ID] = vm
	idx.remoteIDs[vm.RemoteID] = vm.ID
	if vm.Address != "" {
		idx.addresses[vm.Address] = vm.ID
	}
}

func (idx *vmIndex) remove(id int64) bool {
	vm := idx.VMs[id]
	if vm == nil {
		return false
	}
	idx.unindex(vm)
	delete(idx.VMs, id)
	return true
}

func (idx *vmIndex) unindex(vm *types.VM) {
	if idx.remoteIDs[vm.RemoteID] == vm.ID {
		delete(idx.remoteIDs, vm.RemoteID)
	}
	if vm.Address != "" && idx.addresses[vm.Address] == vm.ID {
		delete(idx.addresses, vm.Address)
	}
}

func (idx *vmIndex) lookup(id int64) (*types.VM, error) {
	vm := idx.VMs[id]
	if vm == nil {
		return nil, fmt.Errorf("VM %d: %w", id, types.ErrNotFound)
	}
	return vm, nil
}
