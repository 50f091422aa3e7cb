package jsonstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BYEONGHWALEE-dev/cloud-service/lock/flock"
	"github.com/BYEONGHWALEE-dev/cloud-service/storage"
	storejson "github.com/BYEONGHWALEE-dev/cloud-service/storage/json"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
	"github.com/BYEONGHWALEE-dev/cloud-service/utils"
	"github.com/BYEONGHWALEE-dev/cloud-service/vmstore"
)

const typ = "json"

// compile-time interface check.
var _ vmstore.Store = (*Store)(nil)

// Store keeps every record in one flock-guarded JSON file.
type Store struct {
	db storage.Store[vmIndex]
}

// New returns a store for the index at path guarded by lockPath.
// The file is created on first write.
func New(path, lockPath string) *Store {
	return &Store{db: storejson.New[vmIndex](path, flock.New(lockPath))}
}

func (s *Store) Type() string { return typ }

func (s *Store) Close() error { return nil }

// Create implements vmstore.Store.
func (s *Store) Create(ctx context.Context, vm *types.VM) (*types.VM, error) {
	var out *types.VM
	err := s.db.Update(ctx, func(idx *vmIndex) error {
		if err := idx.checkUnique(0, vm.RemoteID, vm.Address); err != nil {
			return err
		}
		rec := vm.Clone()
		idx.NextID++
		rec.ID = idx.NextID
		now := time.Now()
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		idx.put(rec)
		out = rec.Clone()
		return nil
	})
	return out, err
}

// Get implements vmstore.Store.
func (s *Store) Get(ctx context.Context, id int64) (*types.VM, error) {
	var out *types.VM
	err := s.db.With(ctx, func(idx *vmIndex) error {
		vm, err := idx.lookup(id)
		if err != nil {
			return err
		}
		out = vm.Clone()
		return nil
	})
	return out, err
}

// GetByRemoteID implements vmstore.Store.
func (s *Store) GetByRemoteID(ctx context.Context, remoteID int) (*types.VM, error) {
	var out *types.VM
	err := s.db.With(ctx, func(idx *vmIndex) error {
		id, ok := idx.remoteIDs[remoteID]
		if !ok {
			return fmt.Errorf("remote VM %d: %w", remoteID, types.ErrNotFound)
		}
		vm, err := idx.lookup(id)
		if err != nil {
			return err
		}
		out = vm.Clone()
		return nil
	})
	return out, err
}

// List implements vmstore.Store.
func (s *Store) List(ctx context.Context, ownerID string) ([]*types.VM, error) {
	var out []*types.VM
	err := s.db.With(ctx, func(idx *vmIndex) error {
		for _, id := range utils.SortedKeys(idx.VMs) {
			vm := idx.VMs[id]
			if vm == nil || (ownerID != "" && vm.OwnerID != ownerID) {
				continue
			}
			out = append(out, vm.Clone())
		}
		return nil
	})
	return out, err
}

// UsedAddresses implements network.UsageSource.
func (s *Store) UsedAddresses(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.With(ctx, func(idx *vmIndex) error {
		out = utils.SortedKeys(idx.addresses)
		return nil
	})
	return out, err
}

// UsedRemoteIDs implements vmstore.Store.
func (s *Store) UsedRemoteIDs(ctx context.Context) (map[int]struct{}, error) {
	out := map[int]struct{}{}
	err := s.db.With(ctx, func(idx *vmIndex) error {
		for id := range idx.remoteIDs {
			out[id] = struct{}{}
		}
		return nil
	})
	return out, err
}

// Update implements vmstore.Store.
func (s *Store) Update(ctx context.Context, id int64, fn func(*types.VM) error) (*types.VM, error) {
	var out *types.VM
	err := s.db.Update(ctx, func(idx *vmIndex) error {
		cur, err := idx.lookup(id)
		if err != nil {
			return err
		}
		rec := cur.Clone()
		if err := fn(rec); err != nil {
			return err
		}
		rec.ID = id
		if err := idx.checkUnique(id, rec.RemoteID, rec.Address); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now()
		idx.put(rec)
		out = rec.Clone()
		return nil
	})
	return out, err
}

// Delete implements vmstore.Store.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.db.Update(ctx, func(idx *vmIndex) error {
		if !idx.remove(id) {
			return fmt.Errorf("VM %d: %w", id, types.ErrNotFound)
		}
		return nil
	})
}

// FindByID implements vmstore.MemberDirectory.
func (s *Store) FindByID(ctx context.Context, id string) (*types.Owner, error) {
	var out *types.Owner
	err := s.db.With(ctx, func(idx *vmIndex) error {
		m, err := utils.LookupCopy(idx.Members, id)
		if err != nil {
			return fmt.Errorf("member %s: %w", id, types.ErrNotFound)
		}
		out = &m
		return nil
	})
	return out, err
}

// AddMember implements vmstore.Members.
func (s *Store) AddMember(ctx context.Context, name, email string) (*types.Owner, error) {
	var out *types.Owner
	err := s.db.Update(ctx, func(idx *vmIndex) error {
		for _, m := range idx.Members {
			if m != nil && strings.EqualFold(m.Email, email) {
				return fmt.Errorf("%w: member with email %s exists", types.ErrConflict, email)
			}
		}
		m := &types.Owner{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: time.Now()}
		idx.Members[m.ID] = m
		cp := *m
		out = &cp
		return nil
	})
	return out, err
}

// ListMembers implements vmstore.Members, oldest first.
func (s *Store) ListMembers(ctx context.Context) ([]*types.Owner, error) {
	var out []*types.Owner
	err := s.db.With(ctx, func(idx *vmIndex) error {
		for _, m := range idx.Members {
			if m == nil {
				continue
			}
			cp := *m
			out = append(out, &cp)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *types.Owner) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, err
}
