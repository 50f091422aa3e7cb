package vm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BYEONGHWALEE-dev/cloud-service/hypervisor"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

var _ hypervisor.Hypervisor = (*fakeHyper)(nil)

// fakeHyper is an in-memory hypervisor. Errors and task outcomes are injected
// per operation name.
type fakeHyper struct {
	mu sync.Mutex

	next     int
	vms      map[int]string // remote id -> status
	calls    map[string]int
	failOp   map[string]error
	taskFail map[string]bool
	resized  map[int]int
	network  map[int]string
	spec     map[int][2]int
}

func newFakeHyper() *fakeHyper {
	return &fakeHyper{
		next:     100,
		vms:      map[int]string{9000: "stopped"},
		calls:    map[string]int{},
		failOp:   map[string]error{},
		taskFail: map[string]bool{},
		resized:  map[int]int{},
		network:  map[int]string{},
		spec:     map[int][2]int{},
	}
}

func (f *fakeHyper) Type() string { return "fake" }

func (f *fakeHyper) Authenticate(context.Context) error { return f.enter("auth") }

// enter records a call and returns the injected error for op, if any.
func (f *fakeHyper) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.failOp[op]
}

func (f *fakeHyper) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOp[op] = err
}

func (f *fakeHyper) failTask(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taskFail[op] = true
}

func (f *fakeHyper) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeHyper) setStatus(id int, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vms[id] = status
}

func (f *fakeHyper) remove(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vms, id)
}

func (f *fakeHyper) exists(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.vms[id]
	return ok
}

func (f *fakeHyper) NextVMID(context.Context) (int, error) {
	if err := f.enter("next"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	return id, nil
}

func (f *fakeHyper) List(context.Context) ([]*types.RemoteVM, error) {
	if err := f.enter("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.RemoteVM
	for id, st := range f.vms {
		r := &types.RemoteVM{VMID: id, Status: st}
		if id == 9000 {
			r.Template = 1
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeHyper) Clone(_ context.Context, remoteID int, _ string) (types.TaskHandle, error) {
	if err := f.enter("clone"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vms[remoteID]; ok {
		return "", fmt.Errorf("%w: VM %d already exists", types.ErrRemoteUnavailable, remoteID)
	}
	f.vms[remoteID] = "stopped"
	return handle("clone", remoteID), nil
}

func (f *fakeHyper) AwaitTask(_ context.Context, h types.TaskHandle, _ time.Duration) (types.TaskResult, error) {
	op, _, _ := strings.Cut(string(h), ":")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taskFail[op] {
		return types.TaskResult{State: types.TaskFailed, ExitStatus: op + " failed"}, nil
	}
	return types.TaskResult{State: types.TaskCompleted, ExitStatus: "OK"}, nil
}

func (f *fakeHyper) ApplySpec(_ context.Context, remoteID, cores, memoryMB int) error {
	if err := f.enter("apply"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spec[remoteID] = [2]int{cores, memoryMB}
	return nil
}

func (f *fakeHyper) ResizeDisk(_ context.Context, remoteID, diskGB int) error {
	if err := f.enter("resize"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resized[remoteID] = diskGB
	return nil
}

func (f *fakeHyper) ConfigureNetwork(_ context.Context, remoteID int, address, _ string) error {
	if err := f.enter("network"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.network[remoteID] = address
	return nil
}

func (f *fakeHyper) Start(_ context.Context, remoteID int) (types.TaskHandle, error) {
	return f.power("start", remoteID, "running")
}

func (f *fakeHyper) Stop(_ context.Context, remoteID int) (types.TaskHandle, error) {
	return f.power("stop", remoteID, "stopped")
}

func (f *fakeHyper) power(op string, remoteID int, status string) (types.TaskHandle, error) {
	if err := f.enter(op); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vms[remoteID]; !ok {
		return "", fmt.Errorf("VM %d: %w", remoteID, types.ErrNotFound)
	}
	if !f.taskFail[op] {
		f.vms[remoteID] = status
	}
	return handle(op, remoteID), nil
}

func (f *fakeHyper) Delete(_ context.Context, remoteID int) (types.TaskHandle, error) {
	if err := f.enter("delete"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vms[remoteID]; !ok {
		return "", fmt.Errorf("VM %d: %w", remoteID, types.ErrNotFound)
	}
	if !f.taskFail["delete"] {
		delete(f.vms, remoteID)
	}
	return handle("delete", remoteID), nil
}

func (f *fakeHyper) Status(_ context.Context, remoteID int) (*types.RemoteStatus, error) {
	if err := f.enter("status"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.vms[remoteID]
	if !ok {
		return nil, fmt.Errorf("VM %d: %w", remoteID, types.ErrNotFound)
	}
	return &types.RemoteStatus{Status: st, CPU: 0.25, CPUs: 2, Mem: 512 << 20, MaxMem: 2048 << 20, Uptime: 42}, nil
}

func handle(op string, id int) types.TaskHandle {
	return types.TaskHandle(fmt.Sprintf("%s:UPID:pve:%d", op, id))
}
