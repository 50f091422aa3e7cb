package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	units "github.com/docker/go-units"
	"gopkg.in/yaml.v3"

	"github.com/BYEONGHWALEE-dev/cloud-service/hypervisor/proxmox"
	"github.com/BYEONGHWALEE-dev/cloud-service/lock/flock"
	"github.com/BYEONGHWALEE-dev/cloud-service/network/ipam"
	"github.com/BYEONGHWALEE-dev/cloud-service/vm"
	"github.com/BYEONGHWALEE-dev/cloud-service/vmstore"
	"github.com/BYEONGHWALEE-dev/cloud-service/vmstore/jsonstore"
	"github.com/BYEONGHWALEE-dev/cloud-service/vmstore/sqlstore"
)

// initStore opens the configured record store. Callers close it.
func initStore() (vmstore.Store, error) {
	if err := conf.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("init dirs: %w", err)
	}
	switch conf.Store.Driver {
	case "sqlite":
		s, err := sqlstore.New(conf.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return s, nil
	default:
		return jsonstore.New(conf.IndexFile(), conf.IndexLock()), nil
	}
}

// initManager wires the store, hypervisor, and address pool into a Manager.
// The returned store must be closed by the caller.
func initManager() (*vm.Manager, vmstore.Store, error) {
	store, err := initStore()
	if err != nil {
		return nil, nil, err
	}
	fail := func(err error) (*vm.Manager, vmstore.Store, error) {
		_ = store.Close()
		return nil, nil, err
	}
	hyper, err := proxmox.New(conf)
	if err != nil {
		return fail(fmt.Errorf("init hypervisor: %w", err))
	}
	alloc, err := ipam.New(conf.Network, store)
	if err != nil {
		return fail(fmt.Errorf("init address pool: %w", err))
	}
	mgr, err := vm.New(conf, hyper, alloc, store, flock.New(conf.AllocLock()))
	if err != nil {
		return fail(err)
	}
	return mgr, store, nil
}

// sizeIn parses a human size ("2G", "512M") and expresses it in unit bytes.
func sizeIn(flag, s string, unit int64) (int, error) {
	b, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", flag, s, err)
	}
	if b%unit != 0 {
		return 0, fmt.Errorf("invalid --%s %q: not a whole number of %s", flag, s, units.BytesSize(float64(unit)))
	}
	return int(b / unit), nil
}

// printAs writes v to stdout as json or yaml.
func printAs(format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2) //nolint:mnd
		defer enc.Close() //nolint:errcheck
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (json or yaml)", format)
	}
}
