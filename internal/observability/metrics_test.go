package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(ToolInvocations().WithLabelValues("list_students", "success"))
	ToolInvocations().WithLabelValues("list_students", "success").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(ToolInvocations().WithLabelValues("list_students", "success")))

	DispatchSteps().Observe(2)
	require.Equal(t, 1, testutil.CollectAndCount(DispatchSteps()))
}
