package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minmunui/rudp-vs-tcp/internal/transport"
)

func TestCollectorDescribeEmitsFourDescriptors(t *testing.T) {
	c := NewCollector()
	ch := make(chan *prometheus.Desc, 10)
	c.Describe(ch)
	close(ch)
	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, 4, count)
}

func TestCollectorCollectReportsRecordedRun(t *testing.T) {
	c := NewCollector()
	c.Record(transport.Result{
		Transport:  "rdp",
		BytesSent:  4096,
		Duration:   2 * time.Second,
		LossEvents: [][]int32{{3, 7}},
		Outcome:    transport.Completed,
	})

	ch := make(chan prometheus.Metric, 10)
	c.Collect(ch)
	close(ch)

	var samples []prometheus.Metric
	for m := range ch {
		samples = append(samples, m)
	}
	require.Len(t, samples, 4)

	var bytesSample dto.Metric
	require.NoError(t, samples[0].Write(&bytesSample))
	require.Len(t, bytesSample.GetLabel(), 1)
	assert.Equal(t, "rdp", bytesSample.GetLabel()[0].GetValue())
	assert.Equal(t, float64(4096), bytesSample.GetCounter().GetValue())
}

func TestCollectorIsARegisterablePrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector()
	require.NoError(t, reg.Register(c))
}
