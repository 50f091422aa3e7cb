package vmstore

import (
	"context"

	"github.com/BYEONGHWALEE-dev/cloud-service/network"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

// MemberDirectory resolves VM owners.
type MemberDirectory interface {
	// FindByID returns the member or types.ErrNotFound.
	FindByID(ctx context.Context, id string) (*types.Owner, error)
}

// Members adds the minimal management surface used by the CLI.
type Members interface {
	MemberDirectory
	// AddMember fails with types.ErrConflict on a duplicate email.
	AddMember(ctx context.Context, name, email string) (*types.Owner, error)
	ListMembers(ctx context.Context) ([]*types.Owner, error)
}

// Store persists VM records. A record carries its spec and credential, so
// creating and deleting a VM is one atomic write. Every returned *types.VM is
// a detached copy.
type Store interface {
	Members
	network.UsageSource

	Type() string

	// Create assigns vm.ID and persists vm. It fails with types.ErrConflict
	// when another record holds the same RemoteID or Address.
	Create(ctx context.Context, vm *types.VM) (*types.VM, error)
	Get(ctx context.Context, id int64) (*types.VM, error)
	GetByRemoteID(ctx context.Context, remoteID int) (*types.VM, error)
	// List returns records ordered by ID. An empty ownerID lists all.
	List(ctx context.Context, ownerID string) ([]*types.VM, error)
	UsedRemoteIDs(ctx context.Context) (map[int]struct{}, error)
	// Update applies fn to the record and persists it when fn returns nil.
	// ID is immutable; RemoteID/Address changes are conflict-checked.
	Update(ctx context.Context, id int64, fn func(*types.VM) error) (*types.VM, error)
	// Delete removes the record with its spec and credential, freeing its address.
	Delete(ctx context.Context, id int64) error

	Close() error
}
