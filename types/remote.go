package types

import "fmt"

// RemoteVM is one entry of the hypervisor's VM list.
type RemoteVM struct {
	VMID     int     `json:"vmid"`
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Template int     `json:"template,omitempty"`
	CPUs     float64 `json:"cpus,omitempty"`
	MaxMem   int64   `json:"maxmem,omitempty"`
	MaxDisk  int64   `json:"maxdisk,omitempty"`
}

// RemoteStatus is the hypervisor's current view of one VM.
type RemoteStatus struct {
	Status  string  `json:"status"`
	CPU     float64 `json:"cpu"` // fraction of allotted cores, 0..1 per core
	CPUs    float64 `json:"cpus"`
	Mem     int64   `json:"mem"`
	MaxMem  int64   `json:"maxmem"`
	Disk    int64   `json:"disk"`
	MaxDisk int64   `json:"maxdisk"`
	Uptime  int64   `json:"uptime"`
	NetIn   int64   `json:"netin"`
	NetOut  int64   `json:"netout"`
}

// ResourceUsage is a monitoring snapshot derived from RemoteStatus.
type ResourceUsage struct {
	ID            int64   `json:"id"`
	RemoteID      int     `json:"remote_id"`
	Status        string  `json:"status"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsed    int64   `json:"memory_used"`
	MemoryTotal   int64   `json:"memory_total"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskUsed      int64   `json:"disk_used"`
	DiskTotal     int64   `json:"disk_total"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	NetIn         int64   `json:"net_in"`
	NetOut        int64   `json:"net_out"`
}

// NewResourceUsage converts a remote status snapshot.
func NewResourceUsage(id int64, remoteID int, st *RemoteStatus) *ResourceUsage {
	u := &ResourceUsage{
		ID:            id,
		RemoteID:      remoteID,
		Status:        st.Status,
		CPUPercent:    st.CPU * 100,
		MemoryUsed:    st.Mem,
		MemoryTotal:   st.MaxMem,
		DiskUsed:      st.Disk,
		DiskTotal:     st.MaxDisk,
		UptimeSeconds: st.Uptime,
		NetIn:         st.NetIn,
		NetOut:        st.NetOut,
	}
	if st.MaxMem > 0 {
		u.MemoryPercent = float64(st.Mem) * 100 / float64(st.MaxMem)
	}
	return u
}

// TaskHandle is the hypervisor's opaque identifier (UPID) for an async task.
type TaskHandle string

// TaskState is the terminal outcome of an awaited task.
type TaskState string

const (
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
	TaskTimedOut  TaskState = "timed_out"
)

// TaskResult is returned by AwaitTask.
type TaskResult struct {
	State      TaskState `json:"state"`
	ExitStatus string    `json:"exit_status,omitempty"`
}

// OK reports whether the task completed successfully.
func (r TaskResult) OK() bool {
	return r.State == TaskCompleted
}

func (r TaskResult) String() string {
	if r.ExitStatus == "" {
		return string(r.State)
	}
	return fmt.Sprintf("%s (%s)", r.State, r.ExitStatus)
}
