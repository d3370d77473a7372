package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.Nil(t, p.LoggerProvider())
	assert.NotNil(t, p.MeterProvider())
	p.Install()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSinks(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "aware"})
	assert.Error(t, err)
}

func TestNew_FileExporters(t *testing.T) {
	var logs, metrics bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "aware",
		BatchTimeout:   time.Second,
		MetricInterval: time.Hour,
		LogWriter:      &logs,
		MetricWriter:   &metrics,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	counter, err := p.MeterProvider().Meter("test").Int64Counter("test.frames")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	// The periodic reader exports once more on shutdown.
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, metrics.String(), "test.frames")
}

func TestNew_ExtraReader(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	p, err := New(Config{Enabled: true, ServiceName: "aware", Readers: []sdkmetric.Reader{reader}})
	require.NoError(t, err)
	assert.Nil(t, p.LoggerProvider(), "no log sink configured")

	counter, err := p.MeterProvider().Meter("test").Int64Counter("test.events")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	require.NoError(t, p.Shutdown(context.Background()))
}
