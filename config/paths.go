package config

import (
	"path/filepath"

	"github.com/BYEONGHWALEE-dev/cloud-service/utils"
)

// EnsureDirs creates all static directories required by the stores.
func (c *Config) EnsureDirs() error {
	return utils.EnsureDirs(c.dbDir())
}

// Derived path helpers. All persistent data lives under {RootDir}/db/.

func (c *Config) dbDir() string { return filepath.Join(c.RootDir, "db") }

// IndexFile and IndexLock are the JSON VM store paths.
func (c *Config) IndexFile() string { return filepath.Join(c.dbDir(), "vms.json") }
func (c *Config) IndexLock() string { return filepath.Join(c.dbDir(), "vms.lock") }

// AllocLock serializes remote-id and address reservation across processes.
func (c *Config) AllocLock() string { return filepath.Join(c.dbDir(), "alloc.lock") }

// SQLitePath returns Store.DSN or the default database file.
func (c *Config) SQLitePath() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	return filepath.Join(c.dbDir(), "cloudsvc.db")
}
