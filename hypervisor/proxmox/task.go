package proxmox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
	"github.com/BYEONGHWALEE-dev/cloud-service/utils"
)

const (
	taskStopped = "stopped"
	taskOK      = "OK"
)

type taskStatus struct {
	Status     string `json:"status"`
	ExitStatus string `json:"exitstatus"`
}

// AwaitTask polls the task until it stops or timeout elapses. Polling
// backs off from the configured base interval to its cap.
func (p *Proxmox) AwaitTask(ctx context.Context, handle types.TaskHandle, timeout time.Duration) (types.TaskResult, error) {
	if handle == "" {
		return types.TaskResult{}, fmt.Errorf("%w: empty task handle", types.ErrRemoteUnavailable)
	}
	base, maxPoll := p.conf.TaskPoll()
	path := p.conf.nodePath("tasks", url.PathEscape(string(handle)), "status")

	var result types.TaskResult
	err := utils.WaitFor(ctx, timeout, base, maxPoll, func() (bool, error) {
		var st taskStatus
		if err := p.call(ctx, http.MethodGet, path, nil, &st); err != nil {
			return false, err
		}
		if st.Status != taskStopped {
			return false, nil
		}
		result = types.TaskResult{State: types.TaskFailed, ExitStatus: st.ExitStatus}
		if st.ExitStatus == taskOK {
			result.State = types.TaskCompleted
		}
		return true, nil
	})
	switch {
	case errors.Is(err, utils.ErrWaitTimeout):
		log.WithFunc("proxmox.AwaitTask").Warnf(ctx, "task %s still running after %s", handle, timeout)
		return types.TaskResult{State: types.TaskTimedOut}, nil
	case err != nil:
		return types.TaskResult{}, fmt.Errorf("await task %s: %w", handle, err)
	}
	return result, nil
}
