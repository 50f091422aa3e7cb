package ipam

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BYEONGHWALEE-dev/cloud-service/config"
	"github.com/BYEONGHWALEE-dev/cloud-service/network"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

const typ = "ipam"

// compile-time interface check.
var _ network.Allocator = (*IPAM)(nil)

// IPAM allocates prefix+N for N in [start,end], lowest free first.
// It holds no state of its own; the used set comes from src on every call.
type IPAM struct {
	conf config.NetworkConfig
	src  network.UsageSource
}

// New validates conf and returns an allocator reading usage from src.
func New(conf config.NetworkConfig, src network.UsageSource) (*IPAM, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("usage source is nil")
	}
	return &IPAM{conf: conf, src: src}, nil
}

func (a *IPAM) Type() string { return typ }

// Allocate implements network.Allocator.
func (a *IPAM) Allocate(ctx context.Context) (string, error) {
	used, err := a.used(ctx)
	if err != nil {
		return "", err
	}
	if addr, ok := a.lowestFree(used); ok {
		return addr, nil
	}
	return "", fmt.Errorf("%w: all %d addresses in %s[%d-%d] are in use",
		types.ErrPoolExhausted, a.total(), a.conf.Prefix, a.conf.RangeStart, a.conf.RangeEnd)
}

// Usage implements network.Allocator.
func (a *IPAM) Usage(ctx context.Context) (types.PoolUsage, error) {
	used, err := a.used(ctx)
	if err != nil {
		return types.PoolUsage{}, err
	}
	next, _ := a.lowestFree(used)
	return types.PoolUsage{
		Prefix: a.conf.Prefix,
		Start:  a.conf.RangeStart,
		End:    a.conf.RangeEnd,
		Used:   len(used),
		Total:  a.total(),
		Next:   next,
	}, nil
}

// Contains reports whether addr lies inside the managed range.
func (a *IPAM) Contains(addr string) bool {
	_, ok := a.suffix(addr)
	return ok
}

// used returns the in-range suffixes held by live VMs.
func (a *IPAM) used(ctx context.Context) (map[int]struct{}, error) {
	addrs, err := a.src.UsedAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load used addresses: %w", err)
	}
	used := make(map[int]struct{}, len(addrs))
	for _, addr := range addrs {
		if n, ok := a.suffix(addr); ok {
			used[n] = struct{}{}
		}
	}
	return used, nil
}

func (a *IPAM) lowestFree(used map[int]struct{}) (string, bool) {
	for n := a.conf.RangeStart; n <= a.conf.RangeEnd; n++ {
		if _, taken := used[n]; !taken {
			return a.conf.Prefix + strconv.Itoa(n), true
		}
	}
	return "", false
}

func (a *IPAM) suffix(addr string) (int, bool) {
	rest, ok := strings.CutPrefix(addr, a.conf.Prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < a.conf.RangeStart || n > a.conf.RangeEnd {
		return 0, false
	}
	return n, true
}

func (a *IPAM) total() int {
	return a.conf.RangeEnd - a.conf.RangeStart + 1
}
