package config

import (
	"fmt"
	"net"
	"runtime"
	"strings"
	"time"

	coretypes "github.com/projecteru2/core/types"
)

// Config holds global cloud-service configuration.
type Config struct {
	// RootDir is the base directory for persistent data (VM DB, lock files).
	// Env: CLOUDSVC_ROOT_DIR. Default: /var/lib/cloudsvc.
	RootDir string `json:"root_dir" mapstructure:"root_dir"`
	// PoolSize bounds concurrent hypervisor calls during reconciliation.
	// Defaults to runtime.NumCPU() if zero.
	PoolSize int `json:"pool_size" mapstructure:"pool_size"`
	// ReconcileIntervalSeconds is the period of the background reconciler
	// run by `serve`. Zero disables it.
	ReconcileIntervalSeconds int `json:"reconcile_interval_seconds" mapstructure:"reconcile_interval_seconds"`
	// StaleCreatingMinutes is the age after which GC removes a placeholder
	// still in the creating state.
	StaleCreatingMinutes int `json:"stale_creating_minutes" mapstructure:"stale_creating_minutes"`
	// DefaultSSHUser is the cloud-init user recorded with every VM.
	DefaultSSHUser string `json:"default_ssh_user" mapstructure:"default_ssh_user"`
	// MetricsAddr is the listen address for /metrics under `serve`.
	MetricsAddr string `json:"metrics_addr" mapstructure:"metrics_addr"`

	Proxmox ProxmoxConfig `json:"proxmox" mapstructure:"proxmox"`
	Network NetworkConfig `json:"network" mapstructure:"network"`
	Store   StoreConfig   `json:"store" mapstructure:"store"`

	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// ProxmoxConfig points at a single node and the template cloned for every VM.
type ProxmoxConfig struct {
	// BaseURL is the API root, e.g. https://pve:8006/api2/json.
	BaseURL  string `json:"base_url" mapstructure:"base_url"`
	Node     string `json:"node" mapstructure:"node"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	// InsecureSkipVerify accepts the node's self-signed certificate.
	InsecureSkipVerify bool `json:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`

	TemplateVMID int `json:"template_vmid" mapstructure:"template_vmid"`
	// TemplateDiskGB is the template's disk size; disks are only grown past it.
	TemplateDiskGB int    `json:"template_disk_gb" mapstructure:"template_disk_gb"`
	Disk           string `json:"disk" mapstructure:"disk"`

	HTTPTimeoutSeconds    int `json:"http_timeout_seconds" mapstructure:"http_timeout_seconds"`
	CloneTimeoutSeconds   int `json:"clone_timeout_seconds" mapstructure:"clone_timeout_seconds"`
	ControlTimeoutSeconds int `json:"control_timeout_seconds" mapstructure:"control_timeout_seconds"`
	// Task polls start at TaskPollMillis and back off to TaskPollMaxMillis.
	TaskPollMillis    int `json:"task_poll_millis" mapstructure:"task_poll_millis"`
	TaskPollMaxMillis int `json:"task_poll_max_millis" mapstructure:"task_poll_max_millis"`
}

// NetworkConfig describes the internal address range handed to VMs.
type NetworkConfig struct {
	// Prefix is the first three octets including the trailing dot.
	Prefix       string `json:"prefix" mapstructure:"prefix"`
	RangeStart   int    `json:"range_start" mapstructure:"range_start"`
	RangeEnd     int    `json:"range_end" mapstructure:"range_end"`
	PrefixLength int    `json:"prefix_length" mapstructure:"prefix_length"`
	Gateway      string `json:"gateway" mapstructure:"gateway"`
}

// StoreConfig selects the VM record backend.
type StoreConfig struct {
	// Driver is "json" (flock-guarded file) or "sqlite".
	Driver string `json:"driver" mapstructure:"driver"`
	// DSN overrides the sqlite database path.
	DSN string `json:"dsn" mapstructure:"dsn"`
}

// DefaultConfig returns a Config populated with built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		RootDir:                  "/var/lib/cloudsvc",
		PoolSize:                 runtime.NumCPU(),
		ReconcileIntervalSeconds: 60,
		StaleCreatingMinutes:     30,
		DefaultSSHUser:           "ubuntu",
		MetricsAddr:              ":9464",
		Proxmox: ProxmoxConfig{
			Node:                  "pve",
			Username:              "root@pam",
			TemplateVMID:          9000,
			TemplateDiskGB:        20,
			Disk:                  "scsi0",
			HTTPTimeoutSeconds:    30,
			CloneTimeoutSeconds:   300,
			ControlTimeoutSeconds: 120,
			TaskPollMillis:        500,
			TaskPollMaxMillis:     5000,
		},
		Network: NetworkConfig{
			Prefix:       "192.168.100.",
			RangeStart:   10,
			RangeEnd:     99,
			PrefixLength: 24,
			Gateway:      "192.168.100.1",
		},
		Store: StoreConfig{Driver: "json"},
		Log: coretypes.ServerLogConfig{
			Level: "info",
		},
	}
}

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("root_dir is required")
	}
	if err := c.Network.Validate(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store.driver must be json or sqlite, got %q", c.Store.Driver)
	}
	if c.Proxmox.TemplateDiskGB <= 0 {
		return fmt.Errorf("proxmox.template_disk_gb must be positive")
	}
	return nil
}

// Validate checks the fields needed to reach the hypervisor.
func (c *ProxmoxConfig) Validate() error {
	switch {
	case !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://"):
		return fmt.Errorf("proxmox.base_url must be an http(s) URL, got %q", c.BaseURL)
	case c.Node == "":
		return fmt.Errorf("proxmox.node is required")
	case c.Username == "":
		return fmt.Errorf("proxmox.username is required")
	case c.TemplateVMID <= 0:
		return fmt.Errorf("proxmox.template_vmid must be positive")
	}
	return nil
}

// Validate checks the address range.
func (n *NetworkConfig) Validate() error {
	if !strings.HasSuffix(n.Prefix, ".") || strings.Count(n.Prefix, ".") != 3 {
		return fmt.Errorf("network.prefix must be three octets ending in '.', got %q", n.Prefix)
	}
	if net.ParseIP(n.Prefix+"0") == nil {
		return fmt.Errorf("network.prefix %q is not an IPv4 prefix", n.Prefix)
	}
	if n.RangeStart < 0 || n.RangeEnd > 255 || n.RangeStart > n.RangeEnd {
		return fmt.Errorf("network range [%d,%d] must satisfy 0 <= start <= end <= 255", n.RangeStart, n.RangeEnd)
	}
	if n.PrefixLength < 1 || n.PrefixLength > 32 {
		return fmt.Errorf("network.prefix_length %d out of range", n.PrefixLength)
	}
	if n.Gateway != "" && net.ParseIP(n.Gateway) == nil {
		return fmt.Errorf("network.gateway %q is not an IP", n.Gateway)
	}
	return nil
}

func (c *ProxmoxConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *ProxmoxConfig) CloneTimeout() time.Duration {
	return time.Duration(c.CloneTimeoutSeconds) * time.Second
}

func (c *ProxmoxConfig) ControlTimeout() time.Duration {
	return time.Duration(c.ControlTimeoutSeconds) * time.Second
}

// TaskPoll returns the initial and maximum task poll intervals.
func (c *ProxmoxConfig) TaskPoll() (time.Duration, time.Duration) {
	return time.Duration(c.TaskPollMillis) * time.Millisecond, time.Duration(c.TaskPollMaxMillis) * time.Millisecond
}

// ReconcileInterval is zero when periodic reconciliation is off.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

func (c *Config) StaleCreatingAge() time.Duration {
	return time.Duration(c.StaleCreatingMinutes) * time.Minute
}
