package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

const namespace = "cloudsvc"

var (
	hypervisorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hypervisor_requests_total",
		Help:      "Hypervisor API requests by method and result kind.",
	}, []string{"method", "result"})

	hypervisorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "hypervisor_request_duration_seconds",
		Help:      "Hypervisor API request latency, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	reauthentications = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hypervisor_reauthentications_total",
		Help:      "Sessions dropped after the hypervisor answered 401.",
	})

	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vm_operations_total",
		Help:      "Lifecycle operations by name and result kind.",
	}, []string{"op", "result"})

	vmsByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "vms",
		Help:      "VMs by local status after the last reconciliation.",
	}, []string{"status"})

	poolAddresses = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_addresses",
		Help:      "Internal addresses by state.",
	}, []string{"state"})
)

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return types.Kind(err)
}

// ObserveRemote records one hypervisor API request.
func ObserveRemote(method string, start time.Time, err error) {
	hypervisorRequests.WithLabelValues(method, result(err)).Inc()
	hypervisorLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// ObserveReauth counts a dropped session.
func ObserveReauth() {
	reauthentications.Inc()
}

// ObserveOp records the outcome of a lifecycle operation.
func ObserveOp(op string, err error) {
	operations.WithLabelValues(op, result(err)).Inc()
}

// SetVMCounts replaces the per-status VM gauge.
func SetVMCounts(counts map[types.VMStatus]int) {
	for _, s := range []types.VMStatus{types.VMStatusCreating, types.VMStatusStopped, types.VMStatusRunning, types.VMStatusError} {
		vmsByStatus.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}

// SetPoolUsage publishes address pool occupancy.
func SetPoolUsage(u types.PoolUsage) {
	poolAddresses.WithLabelValues("used").Set(float64(u.Used))
	poolAddresses.WithLabelValues("free").Set(float64(u.Free()))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewServer returns an HTTP server exposing /metrics on addr.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
