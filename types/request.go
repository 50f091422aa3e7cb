package types

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/ssh"
)

const (
	MinCPUCores = 1
	MaxCPUCores = 4
	MinMemoryMB = 512
	MaxMemoryMB = 8192
	MinDiskGB   = 10
	MaxDiskGB   = 100
)

// Proxmox VM names must be valid DNS labels.
var nameRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// CreateRequest carries everything needed to provision a VM.
type CreateRequest struct {
	OwnerID      string `json:"owner_id"`
	Name         string `json:"name"`
	CPUCores     int    `json:"cpu_cores"`
	MemoryMB     int    `json:"memory_mb"`
	DiskGB       int    `json:"disk_gb"`
	SSHPublicKey string `json:"ssh_public_key,omitempty"`
}

// Validate checks the request before any remote call is made.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if !nameRe.MatchString(r.Name) {
		return fmt.Errorf("%w: name %q must be a hostname label (letters, digits, '-')", ErrValidation, r.Name)
	}
	if err := r.Spec().Validate(); err != nil {
		return err
	}
	if key := strings.TrimSpace(r.SSHPublicKey); key != "" {
		if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(key)); err != nil {
			return fmt.Errorf("%w: ssh public key: %v", ErrValidation, err)
		}
	}
	return nil
}

// Spec extracts the resource shape.
func (r *CreateRequest) Spec() VMSpec {
	return VMSpec{CPUCores: r.CPUCores, MemoryMB: r.MemoryMB, DiskGB: r.DiskGB}
}

// Validate enforces the resource bounds.
func (s VMSpec) Validate() error {
	switch {
	case s.CPUCores < MinCPUCores || s.CPUCores > MaxCPUCores:
		return fmt.Errorf("%w: cpu cores %d out of range [%d,%d]", ErrValidation, s.CPUCores, MinCPUCores, MaxCPUCores)
	case s.MemoryMB < MinMemoryMB || s.MemoryMB > MaxMemoryMB:
		return fmt.Errorf("%w: memory %dMB out of range [%d,%d]", ErrValidation, s.MemoryMB, MinMemoryMB, MaxMemoryMB)
	case s.DiskGB < MinDiskGB || s.DiskGB > MaxDiskGB:
		return fmt.Errorf("%w: disk %dGB out of range [%d,%d]", ErrValidation, s.DiskGB, MinDiskGB, MaxDiskGB)
	}
	return nil
}
