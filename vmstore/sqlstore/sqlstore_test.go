package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BYEONGHWALEE-dev/cloud-service/vmstore"
	"github.com/BYEONGHWALEE-dev/cloud-service/vmstore/storetest"
)

func newTestStore(t *testing.T) *Store {
	s, err := New(filepath.Join(t.TempDir(), "cloudsvc.db"))
	require.NoError(t, err)
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) vmstore.Store { return newTestStore(t) })
}

func TestDeleteCascadesChildRows(t *testing.T) {
	s := newTestStore(t)
	defer s.Close() //nolint:errcheck
	ctx := context.Background()

	vm, err := s.Create(ctx, storetest.NewVM("m1", 101, 10))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, vm.ID))

	var specs, creds int64
	require.NoError(t, s.db.Model(&specModel{}).Where("vm_id = ?", vm.ID).Count(&specs).Error)
	require.NoError(t, s.db.Model(&credentialModel{}).Where("vm_id = ?", vm.ID).Count(&creds).Error)
	assert.Zero(t, specs)
	assert.Zero(t, creds)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloudsvc.db")
	ctx := context.Background()

	first, err := New(path)
	require.NoError(t, err)
	vm, err := first.Create(ctx, storetest.NewVM("m1", 101, 10))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(path)
	require.NoError(t, err)
	defer second.Close() //nolint:errcheck
	got, err := second.Get(ctx, vm.ID)
	require.NoError(t, err)
	assert.Equal(t, "192.168.100.10", got.Address)
	assert.Equal(t, 2048, got.Spec.MemoryMB)
}
