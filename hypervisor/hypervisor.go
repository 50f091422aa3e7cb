package hypervisor

import (
	"context"
	"time"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

// Hypervisor is the remote control API used to drive VMs. Implemented by
// each backend. Every method may fail with types.ErrRemoteUnavailable or
// types.ErrAuthFailure; lookups of a missing VM fail with types.ErrNotFound.
type Hypervisor interface {
	Type() string

	Authenticate(context.Context) error

	// NextVMID returns a remote id no other caller of this client holds.
	NextVMID(context.Context) (int, error)
	List(context.Context) ([]*types.RemoteVM, error)

	Clone(ctx context.Context, remoteID int, name string) (types.TaskHandle, error)
	AwaitTask(ctx context.Context, handle types.TaskHandle, timeout time.Duration) (types.TaskResult, error)

	ApplySpec(ctx context.Context, remoteID, cores, memoryMB int) error
	ResizeDisk(ctx context.Context, remoteID, diskGB int) error
	// ConfigureNetwork is a no-op when sshKey is empty.
	ConfigureNetwork(ctx context.Context, remoteID int, address, sshKey string) error

	Start(ctx context.Context, remoteID int) (types.TaskHandle, error)
	Stop(ctx context.Context, remoteID int) (types.TaskHandle, error)
	Delete(ctx context.Context, remoteID int) (types.TaskHandle, error)
	Status(ctx context.Context, remoteID int) (*types.RemoteStatus, error)
}
