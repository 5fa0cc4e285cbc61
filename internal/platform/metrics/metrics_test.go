package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOp(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveOp("link_parent", "ok", time.Now())
	m.ObserveOp("link_parent", "ok", time.Now())
	m.ObserveOp("link_parent", "rejected", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("link_parent", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("link_parent", "rejected")))

	n, err := testutil.GatherAndCount(reg, "pedigree_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestObserveOp_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveOp("x", "ok", time.Now())
}

func TestNew_SeparateRegistries(t *testing.T) {
	// dos instancias no deben chocar al registrar
	require.NotPanics(t, func() {
		_ = Nop()
		_ = Nop()
	})
}
