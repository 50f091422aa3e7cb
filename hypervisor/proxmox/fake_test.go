package proxmox

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/BYEONGHWALEE-dev/cloud-service/config"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

const (
	fakeNode     = "pve"
	fakeTemplate = 9000
	fakePassword = "secret"
)

type fakeCall struct {
	Method string
	Path   string
	Form   url.Values
}

type fakeTask struct {
	polls int
	exit  string
}

// fakePVE is a minimal in-memory Proxmox node speaking the JSON API.
type fakePVE struct {
	t   *testing.T
	srv *httptest.Server

	mu         sync.Mutex
	ticket     string
	logins     int
	rejectNext int // answer the next N authenticated requests with 401
	vms        map[int]*types.RemoteVM
	tasks      map[string]*fakeTask
	calls      []fakeCall
	taskPolls  int    // polls before a task reports stopped
	taskExit   string // exitstatus of new tasks
	failPath   string // path suffix answered with 500 Internal Server Error
}

func newFakePVE(t *testing.T) *fakePVE {
	f := &fakePVE{
		t:         t,
		vms:       map[int]*types.RemoteVM{fakeTemplate: {VMID: fakeTemplate, Name: "tpl", Status: "stopped", Template: 1}},
		tasks:     map[string]*fakeTask{},
		taskPolls: 1,
		taskExit:  "OK",
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePVE) config() *config.Config {
	conf := config.DefaultConfig()
	conf.Proxmox.BaseURL = f.srv.URL + "/api2/json"
	conf.Proxmox.Node = fakeNode
	conf.Proxmox.Password = fakePassword
	conf.Proxmox.TemplateVMID = fakeTemplate
	conf.Proxmox.TaskPollMillis = 1
	conf.Proxmox.TaskPollMaxMillis = 4
	return conf
}

func (f *fakePVE) client(t *testing.T) *Proxmox {
	p, err := New(f.config())
	if err != nil {
		t.Fatalf("new proxmox: %v", err)
	}
	return p
}

func (f *fakePVE) addVM(id int, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vms[id] = &types.RemoteVM{VMID: id, Name: fmt.Sprintf("vm-%d", id), Status: status}
}

func (f *fakePVE) callsTo(method, path string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakePVE) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (f *fakePVE) missing(w http.ResponseWriter, id int) {
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintf(w, `{"data":null,"message":"Configuration file 'nodes/%s/qemu-server/%d.conf' does not exist\n"}`, fakeNode, id)
}

func (f *fakePVE) newTask(kind string, id int) string {
	upid := fmt.Sprintf("UPID:%s:0000%d:%s:%d:root@pam:", fakeNode, len(f.tasks)+1, kind, id)
	f.tasks[upid] = &fakeTask{polls: f.taskPolls, exit: f.taskExit}
	return upid
}

func (f *fakePVE) serve(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	path := strings.TrimPrefix(r.URL.Path, "/api2/json")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{Method: r.Method, Path: path, Form: r.PostForm})

	if path == "/access/ticket" {
		if r.PostForm.Get("password") != fakePassword {
			http.Error(w, "authentication failure", http.StatusUnauthorized)
			return
		}
		f.logins++
		f.ticket = fmt.Sprintf("PVE:root@pam:%08X", f.logins)
		writeData(w, map[string]string{"ticket": f.ticket, "CSRFPreventionToken": fmt.Sprintf("csrf-%d", f.logins)})
		return
	}

	c, err := r.Cookie("PVEAuthCookie")
	if err != nil || c.Value != f.ticket || f.ticket == "" {
		http.Error(w, "invalid ticket", http.StatusUnauthorized)
		return
	}
	if f.rejectNext > 0 {
		f.rejectNext--
		f.ticket = "" // the node forgot the session
		http.Error(w, "ticket expired", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet && r.Header.Get("CSRFPreventionToken") == "" {
		http.Error(w, "missing CSRF token", http.StatusUnauthorized)
		return
	}
	if f.failPath != "" && strings.HasSuffix(path, f.failPath) {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	parts := strings.Split(strings.TrimPrefix(path, "/nodes/"+fakeNode+"/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "qemu" && r.Method == http.MethodGet:
		list := make([]*types.RemoteVM, 0, len(f.vms))
		for _, vm := range f.vms {
			list = append(list, vm)
		}
		writeData(w, list)

	case len(parts) == 3 && parts[0] == "tasks" && parts[2] == "status":
		task := f.tasks[parts[1]]
		if task == nil {
			http.Error(w, "no such task", http.StatusInternalServerError)
			return
		}
		if task.polls > 0 {
			task.polls--
			writeData(w, map[string]string{"status": "running"})
			return
		}
		writeData(w, map[string]string{"status": "stopped", "exitstatus": task.exit})

	case len(parts) >= 2 && parts[0] == "qemu":
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			http.Error(w, "bad vmid", http.StatusBadRequest)
			return
		}
		f.serveVM(w, r, id, parts[2:])

	default:
		http.NotFound(w, r)
	}
}

func (f *fakePVE) serveVM(w http.ResponseWriter, r *http.Request, id int, rest []string) {
	op := strings.Join(rest, "/")
	vm := f.vms[id]
	if vm == nil {
		f.missing(w, id)
		return
	}
	switch {
	case op == "clone" && r.Method == http.MethodPost:
		newID, _ := strconv.Atoi(r.PostForm.Get("newid"))
		if _, exists := f.vms[newID]; exists {
			http.Error(w, fmt.Sprintf("VM %d already exists", newID), http.StatusInternalServerError)
			return
		}
		f.vms[newID] = &types.RemoteVM{VMID: newID, Name: r.PostForm.Get("name"), Status: "stopped"}
		writeData(w, f.newTask("qmclone", id))
	case (op == "config" || op == "resize") && r.Method == http.MethodPut:
		writeData(w, nil)
	case op == "status/start" && r.Method == http.MethodPost:
		vm.Status = "running"
		writeData(w, f.newTask("qmstart", id))
	case op == "status/stop" && r.Method == http.MethodPost:
		vm.Status = "stopped"
		writeData(w, f.newTask("qmstop", id))
	case op == "status/current" && r.Method == http.MethodGet:
		writeData(w, map[string]any{"status": vm.Status, "cpu": 0.5, "mem": 1024, "maxmem": 4096, "uptime": 42})
	case op == "" && r.Method == http.MethodDelete:
		if vm.Status == "running" {
			http.Error(w, "VM is running", http.StatusInternalServerError)
			return
		}
		delete(f.vms, id)
		writeData(w, f.newTask("qmdestroy", id))
	default:
		http.NotFound(w, r)
	}
}
