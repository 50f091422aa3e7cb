package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
	"github.com/BYEONGHWALEE-dev/cloud-service/vmstore"
)

const typ = "sqlite"

// compile-time interface check.
var _ vmstore.Store = (*Store)(nil)

// Store keeps records in SQLite through gorm: one row per VM with its spec
// and credential in child tables.
type Store struct {
	db *gorm.DB
}

// New opens (creating if needed) the database at path and migrates it.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLog{}.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection serializes transactions.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&memberModel{}, &vmModel{}, &specModel{}, &credentialModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Type() string { return typ }

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func preload(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Spec").Preload("Credential")
}

// Create implements vmstore.Store.
func (s *Store) Create(ctx context.Context, vm *types.VM) (*types.VM, error) {
	m := fromVM(vm)
	m.ID = 0
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, 0, m.RemoteID, m.Address); err != nil {
			return err
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return m.toVM(), nil
}

// checkUnique fails when a row other than self holds remoteID or address.
func checkUnique(tx *gorm.DB, self int64, remoteID int, address *string) error {
	var holder vmModel
	held := tx.Where("remote_id = ?", remoteID)
	if address != nil {
		held = held.Or("address = ?", *address)
	}
	err := tx.Where("id <> ?", self).Where(held).Limit(1).Find(&holder).Error
	switch {
	case err != nil:
		return err
	case holder.ID == 0:
		return nil
	case holder.RemoteID == remoteID:
		return fmt.Errorf("%w: remote id %d already held by VM %d", types.ErrConflict, remoteID, holder.ID)
	default:
		return fmt.Errorf("%w: address %s already held by VM %d", types.ErrConflict, *address, holder.ID)
	}
}

// Get implements vmstore.Store.
func (s *Store) Get(ctx context.Context, id int64) (*types.VM, error) {
	var m vmModel
	if err := preload(s.db.WithContext(ctx)).First(&m, id).Error; err != nil {
		return nil, fmt.Errorf("VM %d: %w", id, translate(err))
	}
	return m.toVM(), nil
}

// GetByRemoteID implements vmstore.Store.
func (s *Store) GetByRemoteID(ctx context.Context, remoteID int) (*types.VM, error) {
	var m vmModel
	if err := preload(s.db.WithContext(ctx)).Where("remote_id = ?", remoteID).First(&m).Error; err != nil {
		return nil, fmt.Errorf("remote VM %d: %w", remoteID, translate(err))
	}
	return m.toVM(), nil
}

// List implements vmstore.Store.
func (s *Store) List(ctx context.Context, ownerID string) ([]*types.VM, error) {
	q := preload(s.db.WithContext(ctx)).Order("id")
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	var ms []vmModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]*types.VM, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].toVM())
	}
	return out, nil
}

// UsedAddresses implements network.UsageSource.
func (s *Store) UsedAddresses(ctx context.Context) ([]string, error) {
	var addrs []string
	err := s.db.WithContext(ctx).Model(&vmModel{}).
		Where("address IS NOT NULL").Order("address").Pluck("address", &addrs).Error
	if err != nil {
		return nil, translate(err)
	}
	return addrs, nil
}

// UsedRemoteIDs implements vmstore.Store.
func (s *Store) UsedRemoteIDs(ctx context.Context) (map[int]struct{}, error) {
	var ids []int
	if err := s.db.WithContext(ctx).Model(&vmModel{}).Pluck("remote_id", &ids).Error; err != nil {
		return nil, translate(err)
	}
	out := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// Update implements vmstore.Store.
func (s *Store) Update(ctx context.Context, id int64, fn func(*types.VM) error) (*types.VM, error) {
	var out *types.VM
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur vmModel
		if err := preload(tx).First(&cur, id).Error; err != nil {
			return fmt.Errorf("VM %d: %w", id, err)
		}
		vm := cur.toVM()
		if err := fn(vm); err != nil {
			return err
		}
		vm.ID = id
		vm.UpdatedAt = time.Now()
		next := fromVM(vm)
		next.CreatedAt = cur.CreatedAt
		next.Spec.ID, next.Spec.VMID = cur.Spec.ID, id
		next.Credential.ID, next.Credential.VMID = cur.Credential.ID, id
		if err := checkUnique(tx, id, next.RemoteID, next.Address); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(next).Error; err != nil {
			return err
		}
		if err := tx.Save(&next.Spec).Error; err != nil {
			return err
		}
		if err := tx.Save(&next.Credential).Error; err != nil {
			return err
		}
		out = next.toVM()
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Delete implements vmstore.Store. Child rows are removed explicitly so the
// cascade holds even when foreign keys are off.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vm_id = ?", id).Delete(&specModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("vm_id = ?", id).Delete(&credentialModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&vmModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("VM %d: %w", id, types.ErrNotFound)
		}
		return nil
	}))
}

// FindByID implements vmstore.MemberDirectory.
func (s *Store) FindByID(ctx context.Context, id string) (*types.Owner, error) {
	var m memberModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("member %s: %w", id, translate(err))
	}
	return m.toOwner(), nil
}

// AddMember implements vmstore.Members.
func (s *Store) AddMember(ctx context.Context, name, email string) (*types.Owner, error) {
	m := &memberModel{ID: uuid.NewString(), Name: name, Email: strings.ToLower(email), CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("add member %s: %w", email, translate(err))
	}
	return m.toOwner(), nil
}

// ListMembers implements vmstore.Members, oldest first.
func (s *Store) ListMembers(ctx context.Context) ([]*types.Owner, error) {
	var ms []memberModel
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&ms).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]*types.Owner, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].toOwner())
	}
	return out, nil
}

// translate maps driver errors onto the store's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return types.ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", types.ErrConflict, err)
	}
	return err
}
