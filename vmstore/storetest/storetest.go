// Package storetest is a conformance suite run against every vmstore backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
	"github.com/BYEONGHWALEE-dev/cloud-service/vmstore"
)

// Run exercises newStore's backend. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) vmstore.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s vmstore.Store)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"CreateConflicts", testCreateConflicts},
		{"ListByOwner", testListByOwner},
		{"UpdateStatus", testUpdateStatus},
		{"UpdateConflict", testUpdateConflict},
		{"DeleteFreesAddress", testDeleteFreesAddress},
		{"NotFound", testNotFound},
		{"Members", testMembers},
		{"ConcurrentCreates", testConcurrentCreates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// NewVM builds a placeholder record for remoteID holding prefix+suffix.
func NewVM(owner string, remoteID, suffix int) *types.VM {
	return &types.VM{
		RemoteID:   remoteID,
		Name:       fmt.Sprintf("vm-%d", remoteID),
		Address:    fmt.Sprintf("192.168.100.%d", suffix),
		Status:     types.VMStatusCreating,
		OwnerID:    owner,
		Spec:       types.VMSpec{CPUCores: 2, MemoryMB: 2048, DiskGB: 20},
		Credential: types.SSHCredential{Username: "ubuntu", PublicKey: "ssh-ed25519 AAAA test"},
	}
}

func testCreateAndGet(t *testing.T, s vmstore.Store) {
	ctx := context.Background()
	created, err := s.Create(ctx, NewVM("m1", 101, 10))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 101, got.RemoteID)
	assert.Equal(t, "192.168.100.10", got.Address)
	assert.Equal(t, types.VMStatusCreating, got.Status)
	assert.Equal(t, types.VMSpec{CPUCores: 2, MemoryMB: 2048, DiskGB: 20}, got.Spec)
	assert.Equal(t, "ubuntu", got.Credential.Username)
	assert.Equal(t, "ssh-ed25519 AAAA test", got.Credential.PublicKey)

	byRemote, err := s.GetByRemoteID(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byRemote.ID)

	second, err := s.Create(ctx, NewVM("m1", 102, 11))
	require.NoError(t, err)
	assert.Greater(t, second.ID, created.ID)
}

func testCreateConflicts(t *testing.T, s vmstore.Store) {
	ctx := context.Background()
	_, err := s.Create(ctx, NewVM("m1", 101, 10))
	require.NoError(t, err)

	_, err = s.Create(ctx, NewVM("m1", 101, 11))
	assert.ErrorIs(t, err, types.ErrConflict, "duplicate remote id")
	_, err = s.Create(ctx, NewVM("m1", 102, 10))
	assert.ErrorIs(t, err, types.ErrConflict, "duplicate address")

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1, "rejected creates must not leave records")
}

func testListByOwner(t *testing.T, s vmstore.Store) {
	ctx := context.Background()
	for i, owner := range []string{"m1", "m2", "m1"} {
		_, err := s.Create(ctx, NewVM(owner, 101+i, 10+i))
		require.NoError(t, err)
	}
	mine, err := s.List(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Less(t, mine[0].ID, mine[1].ID)
	for _, vm := range mine {
		assert.Equal(t, "m1", vm.OwnerID)
	}
	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	none, err := s.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testUpdateStatus(t *testing.T, s vmstore.Store) {
	ctx := context.Background()
	vm, err := s.Create(ctx, NewVM("m1", 101, 10))
	require.NoError(t, err)

	updated, err := s.Update(ctx, vm.ID, func(v *types.VM) error {
		v.Status = types.VMStatusError
		v.StatusReason = "apply spec: boom"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, types.VMStatusError, updated.Status)

	got, err := s.Get(ctx, vm.ID)
	require.NoError(t, err)
	assert.Equal(t, types.VMStatusError, got.Status)
	assert.Equal(t, "apply spec: boom", got.StatusReason)
	assert.Equal(t, vm.Spec, got.Spec, "update must keep the spec")
	assert.Equal(t, vm.Credential, got.Credential, "update must keep the credential")

	failed := fmt.Errorf("abort")
	_, err = s.Update(ctx, vm.ID, func(v *types.VM) error {
		v.Status = types.VMStatusRunning
		return failed
	})
	assert.ErrorIs(t, err, failed)
	got, err = s.Get(ctx, vm.ID)
	require.NoError(t, err)
	assert.Equal(t, types.VMStatusError, got.Status, "failed update must not persist")
}

func testUpdateConflict(t *testing.T, s vmstore.Store) {
	ctx := context.Background()
	a, err := s.Create(ctx, NewVM("m1", 101, 10))
	require.NoError(t, err)
	_, err = s.Create(ctx, NewVM("m1", 102, 11))
	require.NoError(t, err)

	_, err = s.Update(ctx, a.ID, func(v *types.VM) error {
		v.Address = "192.168.100.11"
		return nil
	})
	assert.ErrorIs(t, err, types.ErrConflict)
}

func testDeleteFreesAddress(t *testing.T, s vmstore.Store) {
	ctx := context.Background()
	vm, err := s.Create(ctx, NewVM("m1", 101, 10))
	require.NoError(t, err)

	used, err := s.UsedAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.100.10"}, used)
	ids, err := s.UsedRemoteIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, 101)

	require.NoError(t, s.Delete(ctx, vm.ID))
	used, err = s.UsedAddresses(ctx)
	require.NoError(t, err)
	assert.Empty(t, used)
	_, err = s.Get(ctx, vm.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// the freed remote id and address may be reused
	_, err = s.Create(ctx, NewVM("m1", 101, 10))
	assert.NoError(t, err)
}

func testNotFound(t *testing.T, s vmstore.Store) {
	ctx := context.Background()
	_, err := s.Get(ctx, 42)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = s.GetByRemoteID(ctx, 4242)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = s.Update(ctx, 42, func(*types.VM) error { return nil })
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, 42), types.ErrNotFound)
	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func testMembers(t *testing.T, s vmstore.Store) {
	ctx := context.Background()
	alice, err := s.AddMember(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)
	_, err = s.AddMember(ctx, "bob", "bob@example.com")
	require.NoError(t, err)

	_, err = s.AddMember(ctx, "alice2", "alice@example.com")
	assert.ErrorIs(t, err, types.ErrConflict)

	got, err := s.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	all, err := s.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testConcurrentCreates(t *testing.T, s vmstore.Store) {
	ctx := context.Background()
	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, NewVM("m1", 200+i, 20+i))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, n)
	seen := map[int64]bool{}
	for _, vm := range all {
		assert.False(t, seen[vm.ID], "duplicate local id %d", vm.ID)
		seen[vm.ID] = true
	}
}
