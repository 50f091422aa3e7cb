package network

import (
	"context"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

// Allocator hands out internal addresses, one per VM. There is no explicit
// release: an address is free again once no live VM record holds it.
type Allocator interface {
	Type() string

	// Allocate returns the lowest free address or types.ErrPoolExhausted.
	// Callers must hold the allocation lock until the address is recorded.
	Allocate(context.Context) (string, error)
	Usage(context.Context) (types.PoolUsage, error)
}

// UsageSource reports the addresses currently held by live VMs,
// creating placeholders included.
type UsageSource interface {
	UsedAddresses(context.Context) ([]string, error)
}
