package ipam

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BYEONGHWALEE-dev/cloud-service/config"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

// memSource is a set of held addresses standing in for the VM store.
type memSource struct {
	mu    sync.Mutex
	addrs map[string]struct{}
	err   error
}

func newMemSource(addrs ...string) *memSource {
	s := &memSource{addrs: map[string]struct{}{}}
	for _, a := range addrs {
		s.addrs[a] = struct{}{}
	}
	return s
}

func (s *memSource) UsedAddresses(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, 0, len(s.addrs))
	for a := range s.addrs {
		out = append(out, a)
	}
	return out, nil
}

func (s *memSource) hold(a string)    { s.mu.Lock(); s.addrs[a] = struct{}{}; s.mu.Unlock() }
func (s *memSource) release(a string) { s.mu.Lock(); delete(s.addrs, a); s.mu.Unlock() }

func netConf(start, end int) config.NetworkConfig {
	c := config.DefaultConfig().Network
	c.RangeStart, c.RangeEnd = start, end
	return c
}

func newIPAM(t *testing.T, conf config.NetworkConfig, src *memSource) *IPAM {
	t.Helper()
	a, err := New(conf, src)
	require.NoError(t, err)
	return a
}

func TestAllocateFirstAddress(t *testing.T) {
	a := newIPAM(t, netConf(10, 99), newMemSource())
	addr, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "192.168.100.10", addr)
}

func TestAllocateExactlyRangeSizeThenExhausted(t *testing.T) {
	src := newMemSource()
	a := newIPAM(t, netConf(10, 14), src)
	ctx := context.Background()

	for i := range 5 {
		addr, err := a.Allocate(ctx)
		require.NoError(t, err, "allocation %d", i)
		src.hold(addr)
	}
	_, err := a.Allocate(ctx)
	assert.ErrorIs(t, err, types.ErrPoolExhausted)
}

func TestLowestFreeWinsAfterRelease(t *testing.T) {
	src := newMemSource("192.168.100.10", "192.168.100.11", "192.168.100.12")
	a := newIPAM(t, netConf(10, 99), src)
	src.release("192.168.100.11")

	addr, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "192.168.100.11", addr)
}

func TestOutOfRangeAddressesIgnored(t *testing.T) {
	src := newMemSource("192.168.100.5", "10.0.0.10", "192.168.100.100", "192.168.100.x")
	a := newIPAM(t, netConf(10, 10), src)

	addr, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "192.168.100.10", addr)

	u, err := a.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, u.Used)
	assert.Equal(t, 1, u.Total)
}

func TestNoDuplicatesUnderInterleavedAllocateRelease(t *testing.T) {
	src := newMemSource()
	a := newIPAM(t, netConf(10, 19), src)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 2))

	held := map[string]bool{}
	for range 500 {
		if len(held) > 0 && rng.IntN(3) == 0 {
			for addr := range held {
				src.release(addr)
				delete(held, addr)
				break
			}
			continue
		}
		addr, err := a.Allocate(ctx)
		if errors.Is(err, types.ErrPoolExhausted) {
			assert.Len(t, held, 10)
			continue
		}
		require.NoError(t, err)
		require.False(t, held[addr], "address %s handed out twice", addr)
		held[addr] = true
		src.hold(addr)
	}
}

func TestUsage(t *testing.T) {
	src := newMemSource("192.168.100.10", "192.168.100.12")
	a := newIPAM(t, netConf(10, 99), src)
	u, err := a.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.PoolUsage{Prefix: "192.168.100.", Start: 10, End: 99, Used: 2, Total: 90, Next: "192.168.100.11"}, u)
	assert.Equal(t, 88, u.Free())
	assert.True(t, a.Contains("192.168.100.99"))
	assert.False(t, a.Contains("192.168.100.9"))
}

func TestSourceErrorPropagates(t *testing.T) {
	src := newMemSource()
	src.err = errors.New("db down")
	a := newIPAM(t, netConf(10, 99), src)
	_, err := a.Allocate(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.NotErrorIs(t, err, types.ErrPoolExhausted)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(netConf(50, 40), newMemSource())
	assert.Error(t, err)
	_, err = New(netConf(10, 20), nil)
	assert.Error(t, err)
}
