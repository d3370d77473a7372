package reconcile

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/hydra/aware/internal/reconcile"

type metrics struct {
	received   metric.Int64Counter
	flushes    metric.Int64Counter
	reconnects metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (metrics, error) {
	m := mp.Meter(instrumentationName)
	var (
		out metrics
		err error
	)

	out.received, err = m.Int64Counter(
		"reconcile.events.received",
		metric.WithDescription("Change events received from the world stream"),
	)
	if err != nil {
		return out, fmt.Errorf("creating received counter: %w", err)
	}

	out.flushes, err = m.Int64Counter(
		"reconcile.flushes",
		metric.WithDescription("Batches applied to the snapshot"),
	)
	if err != nil {
		return out, fmt.Errorf("creating flushes counter: %w", err)
	}

	out.reconnects, err = m.Int64Counter(
		"reconcile.reconnects",
		metric.WithDescription("Reconnect attempts after stream failure"),
	)
	if err != nil {
		return out, fmt.Errorf("creating reconnects counter: %w", err)
	}

	return out, nil
}
