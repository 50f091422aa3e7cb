package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

func TestObserveOpLabelsByKind(t *testing.T) {
	before := testutil.ToFloat64(operations.WithLabelValues("create", "pool_exhausted"))
	ObserveOp("create", fmt.Errorf("allocate: %w", types.ErrPoolExhausted))
	assert.Equal(t, before+1, testutil.ToFloat64(operations.WithLabelValues("create", "pool_exhausted")))

	okBefore := testutil.ToFloat64(operations.WithLabelValues("start", "ok"))
	ObserveOp("start", nil)
	assert.Equal(t, okBefore+1, testutil.ToFloat64(operations.WithLabelValues("start", "ok")))
}

func TestGauges(t *testing.T) {
	SetVMCounts(map[types.VMStatus]int{types.VMStatusRunning: 3})
	assert.Equal(t, 3.0, testutil.ToFloat64(vmsByStatus.WithLabelValues("running")))
	assert.Equal(t, 0.0, testutil.ToFloat64(vmsByStatus.WithLabelValues("error")))

	SetPoolUsage(types.PoolUsage{Used: 4, Total: 90})
	assert.Equal(t, 86.0, testutil.ToFloat64(poolAddresses.WithLabelValues("free")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveRemote("GET", time.Now(), errors.New("boom"))

	srv := httptest.NewServer(NewServer(":0").Handler)
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "cloudsvc_hypervisor_requests_total")
}
