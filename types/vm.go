package types

import "time"

// VMStatus represents the lifecycle state of a VM as recorded locally.
type VMStatus string

const (
	VMStatusCreating VMStatus = "creating" // placeholder reserved, remote clone in flight
	VMStatusStopped  VMStatus = "stopped"
	VMStatusRunning  VMStatus = "running"
	VMStatusError    VMStatus = "error" // configuration failed or hypervisor disagrees; not terminal
)

// VMSpec is the resource shape requested for a VM.
type VMSpec struct {
	CPUCores int `json:"cpu_cores"`
	MemoryMB int `json:"memory_mb"`
	DiskGB   int `json:"disk_gb"`
}

// SSHCredential is injected into the guest via cloud-init. PublicKey may be empty.
type SSHCredential struct {
	Username  string `json:"username"`
	PublicKey string `json:"public_key,omitempty"`
}

// VM is the local record for a VM. Spec and Credential live and die with it.
type VM struct {
	ID           int64    `json:"id"`
	RemoteID     int      `json:"remote_id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Status       VMStatus `json:"status"`
	StatusReason string   `json:"status_reason,omitempty"`
	OwnerID      string   `json:"owner_id"`

	Spec       VMSpec        `json:"spec"`
	Credential SSHCredential `json:"credential"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// VMSummary is the externally visible view of a VM.
type VMSummary struct {
	ID          int64     `json:"id" yaml:"id"`
	RemoteID    int       `json:"remote_id" yaml:"remote_id"`
	Name        string    `json:"name" yaml:"name"`
	Address     string    `json:"address" yaml:"address"`
	Status      VMStatus  `json:"status" yaml:"status"`
	Reason      string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	OwnerID     string    `json:"owner_id" yaml:"owner_id"`
	Spec        VMSpec    `json:"spec" yaml:"spec"`
	SSHUsername string    `json:"ssh_username" yaml:"ssh_username"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Summary projects the record into its exposed view.
func (vm *VM) Summary() *VMSummary {
	return &VMSummary{
		ID:          vm.ID,
		RemoteID:    vm.RemoteID,
		Name:        vm.Name,
		Address:     vm.Address,
		Status:      vm.Status,
		Reason:      vm.StatusReason,
		OwnerID:     vm.OwnerID,
		Spec:        vm.Spec,
		SSHUsername: vm.Credential.Username,
		CreatedAt:   vm.CreatedAt,
	}
}

// Clone returns a deep copy safe to hand out of a store.
func (vm *VM) Clone() *VM {
	cp := *vm
	if vm.LastSyncedAt != nil {
		t := *vm.LastSyncedAt
		cp.LastSyncedAt = &t
	}
	return &cp
}

// CreateResult is returned by a successful provisioning workflow.
type CreateResult struct {
	ID       int64    `json:"id"`
	RemoteID int      `json:"remote_id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Status   VMStatus `json:"status"`
	Reason   string   `json:"reason,omitempty"`
}
