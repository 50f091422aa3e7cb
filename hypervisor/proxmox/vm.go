package proxmox

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

// List returns every VM on the node, templates included.
func (p *Proxmox) List(ctx context.Context) ([]*types.RemoteVM, error) {
	var vms []*types.RemoteVM
	if err := p.call(ctx, http.MethodGet, p.conf.nodePath("qemu"), nil, &vms); err != nil {
		return nil, err
	}
	return vms, nil
}

// NextVMID returns max(existing)+1, ignoring the template and reserved low
// ids, or minVMID on an empty node. Ids handed out stay reserved in-process
// until the node lists them, so concurrent callers never collide.
func (p *Proxmox) NextVMID(ctx context.Context) (int, error) {
	vms, err := p.List(ctx)
	if err != nil {
		return 0, err
	}

	p.idMu.Lock()
	defer p.idMu.Unlock()

	listed := make(map[int]struct{}, len(vms))
	next := minVMID
	for _, vm := range vms {
		listed[vm.VMID] = struct{}{}
		if vm.VMID == p.conf.TemplateVMID || vm.VMID < minVMID {
			continue
		}
		next = max(next, vm.VMID+1)
	}
	for id := range p.reserved {
		if _, ok := listed[id]; ok {
			delete(p.reserved, id)
			continue
		}
		next = max(next, id+1)
	}
	p.reserved[next] = struct{}{}
	return next, nil
}

// Clone starts a full clone of the template into remoteID.
func (p *Proxmox) Clone(ctx context.Context, remoteID int, name string) (types.TaskHandle, error) {
	form := url.Values{
		"newid": {strconv.Itoa(remoteID)},
		"name":  {name},
		"full":  {"1"},
	}
	handle, err := p.task(ctx, http.MethodPost, p.conf.qemuPath(p.conf.TemplateVMID, "clone"), form)
	if err != nil {
		return "", err
	}
	log.WithFunc("proxmox.Clone").Infof(ctx, "cloning template %d into %d (%s): %s", p.conf.TemplateVMID, remoteID, name, handle)
	return handle, nil
}

// ApplySpec sets CPU cores and memory.
func (p *Proxmox) ApplySpec(ctx context.Context, remoteID, cores, memoryMB int) error {
	form := url.Values{
		"cores":  {strconv.Itoa(cores)},
		"memory": {strconv.Itoa(memoryMB)},
	}
	return p.call(ctx, http.MethodPut, p.conf.qemuPath(remoteID, "config"), form, nil)
}

// ResizeDisk grows the configured disk to diskGB.
func (p *Proxmox) ResizeDisk(ctx context.Context, remoteID, diskGB int) error {
	form := url.Values{
		"disk": {p.conf.Disk},
		"size": {fmt.Sprintf("%dG", diskGB)},
	}
	return p.call(ctx, http.MethodPut, p.conf.qemuPath(remoteID, "resize"), form, nil)
}

// ConfigureNetwork sets the cloud-init static address and authorized key.
func (p *Proxmox) ConfigureNetwork(ctx context.Context, remoteID int, address, sshKey string) error {
	sshKey = strings.TrimSpace(sshKey)
	if sshKey == "" {
		return nil
	}
	form := url.Values{
		"ipconfig0": {p.conf.ipConfig(address)},
		"sshkeys":   {encodeSSHKeys(sshKey)},
	}
	return p.call(ctx, http.MethodPut, p.conf.qemuPath(remoteID, "config"), form, nil)
}

// encodeSSHKeys applies the extra URL encoding PVE expects inside the
// sshkeys form value. PVE decodes %20 but not '+'.
func encodeSSHKeys(keys string) string {
	return strings.ReplaceAll(url.QueryEscape(keys), "+", "%20")
}

func (p *Proxmox) Start(ctx context.Context, remoteID int) (types.TaskHandle, error) {
	return p.task(ctx, http.MethodPost, p.conf.qemuPath(remoteID, "status", "start"), url.Values{})
}

func (p *Proxmox) Stop(ctx context.Context, remoteID int) (types.TaskHandle, error) {
	return p.task(ctx, http.MethodPost, p.conf.qemuPath(remoteID, "status", "stop"), url.Values{})
}

// Delete destroys the VM and its disks. PVE refuses running VMs.
func (p *Proxmox) Delete(ctx context.Context, remoteID int) (types.TaskHandle, error) {
	return p.task(ctx, http.MethodDelete, p.conf.qemuPath(remoteID), nil)
}

// Status returns the node's current view of remoteID.
func (p *Proxmox) Status(ctx context.Context, remoteID int) (*types.RemoteStatus, error) {
	var st types.RemoteStatus
	if err := p.call(ctx, http.MethodGet, p.conf.qemuPath(remoteID, "status", "current"), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
