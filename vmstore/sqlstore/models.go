package sqlstore

import (
	"time"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

type memberModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (memberModel) TableName() string { return "members" }

type vmModel struct {
	ID       int64 `gorm:"primaryKey;autoIncrement"`
	RemoteID int   `gorm:"uniqueIndex;not null"`
	Name     string `gorm:"not null"`
	// NULL until assigned so the unique index ignores unaddressed rows.
	Address      *string `gorm:"uniqueIndex"`
	Status       string  `gorm:"index;not null"`
	StatusReason string
	OwnerID      string `gorm:"index;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSyncedAt *time.Time

	Spec       specModel       `gorm:"foreignKey:VMID;constraint:OnDelete:CASCADE"`
	Credential credentialModel `gorm:"foreignKey:VMID;constraint:OnDelete:CASCADE"`
}

func (vmModel) TableName() string { return "virtual_machines" }

type specModel struct {
	ID       int64 `gorm:"primaryKey;autoIncrement"`
	VMID     int64 `gorm:"uniqueIndex;not null"`
	CPUCores int   `gorm:"not null"`
	MemoryMB int   `gorm:"not null"`
	DiskGB   int   `gorm:"not null"`
}

func (specModel) TableName() string { return "vm_specs" }

type credentialModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	VMID      int64  `gorm:"uniqueIndex;not null"`
	Username  string `gorm:"not null"`
	PublicKey string `gorm:"type:text"`
}

func (credentialModel) TableName() string { return "ssh_credentials" }

func fromVM(vm *types.VM) *vmModel {
	m := &vmModel{
		ID:           vm.ID,
		RemoteID:     vm.RemoteID,
		Name:         vm.Name,
		Status:       string(vm.Status),
		StatusReason: vm.StatusReason,
		OwnerID:      vm.OwnerID,
		CreatedAt:    vm.CreatedAt,
		UpdatedAt:    vm.UpdatedAt,
		LastSyncedAt: vm.LastSyncedAt,
		Spec: specModel{
			CPUCores: vm.Spec.CPUCores,
			MemoryMB: vm.Spec.MemoryMB,
			DiskGB:   vm.Spec.DiskGB,
		},
		Credential: credentialModel{
			Username:  vm.Credential.Username,
			PublicKey: vm.Credential.PublicKey,
		},
	}
	if vm.Address != "" {
		addr := vm.Address
		m.Address = &addr
	}
	return m
}

func (m *vmModel) toVM() *types.VM {
	vm := &types.VM{
		ID:           m.ID,
		RemoteID:     m.RemoteID,
		Name:         m.Name,
		Status:       types.VMStatus(m.Status),
		StatusReason: m.StatusReason,
		OwnerID:      m.OwnerID,
		Spec: types.VMSpec{
			CPUCores: m.Spec.CPUCores,
			MemoryMB: m.Spec.MemoryMB,
			DiskGB:   m.Spec.DiskGB,
		},
		Credential: types.SSHCredential{
			Username:  m.Credential.Username,
			PublicKey: m.Credential.PublicKey,
		},
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		LastSyncedAt: m.LastSyncedAt,
	}
	if m.Address != nil {
		vm.Address = *m.Address
	}
	return vm
}

func (m *memberModel) toOwner() *types.Owner {
	return &types.Owner{ID: m.ID, Name: m.Name, Email: m.Email, CreatedAt: m.CreatedAt}
}
