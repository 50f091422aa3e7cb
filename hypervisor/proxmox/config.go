package proxmox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BYEONGHWALEE-dev/cloud-service/config"
)

// Config wraps the global config with Proxmox-specific path helpers.
type Config struct {
	config.ProxmoxConfig
	Network config.NetworkConfig
}

// url joins BaseURL and an API path.
func (c *Config) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

// nodePath builds /nodes/{node}/parts...
func (c *Config) nodePath(parts ...string) string {
	return "/nodes/" + c.Node + "/" + strings.Join(parts, "/")
}

// qemuPath builds /nodes/{node}/qemu/{vmid}/parts...
func (c *Config) qemuPath(vmid int, parts ...string) string {
	return c.nodePath(append([]string{"qemu", strconv.Itoa(vmid)}, parts...)...)
}

// ipConfig renders the cloud-init ipconfig0 value for address.
func (c *Config) ipConfig(address string) string {
	s := fmt.Sprintf("ip=%s/%d", address, c.Network.PrefixLength)
	if c.Network.Gateway != "" {
		s += ",gw=" + c.Network.Gateway
	}
	return s
}
