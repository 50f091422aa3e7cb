package proxmox

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/config"
	"github.com/BYEONGHWALEE-dev/cloud-service/hypervisor"
	"github.com/BYEONGHWALEE-dev/cloud-service/utils"
)

const (
	typ = "proxmox"
	// Proxmox reserves VMIDs below 100.
	minVMID = 100
)

// compile-time interface check.
var _ hypervisor.Hypervisor = (*Proxmox)(nil)

// Proxmox implements hypervisor.Hypervisor against one PVE node.
type Proxmox struct {
	conf *Config
	hc   *http.Client
	sess session

	// reserved holds VMIDs handed out by NextVMID that the node has not
	// listed yet.
	idMu     sync.Mutex
	reserved map[int]struct{}
}

// New creates a Proxmox backend.
func New(conf *config.Config) (*Proxmox, error) {
	if conf == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := conf.Proxmox.Validate(); err != nil {
		return nil, err
	}
	cfg := &Config{ProxmoxConfig: conf.Proxmox, Network: conf.Network}
	return &Proxmox{
		conf:     cfg,
		hc:       utils.NewHTTPClient(cfg.HTTPTimeout(), cfg.InsecureSkipVerify),
		reserved: map[int]struct{}{},
	}, nil
}

func (p *Proxmox) Type() string { return typ }

// Authenticate discards any current session and logs in again.
func (p *Proxmox) Authenticate(ctx context.Context) error {
	p.sess.reset()
	if _, err := p.sess.get(ctx, p.login); err != nil {
		return hypervisor.Classify("authenticate", err)
	}
	log.WithFunc("proxmox.Authenticate").Infof(ctx, "authenticated to %s as %s", p.conf.BaseURL, p.conf.Username)
	return nil
}
