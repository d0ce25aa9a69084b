package game

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/race/highway/internal/game"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// sessionMetrics are the OTel instruments shared by all sessions.
// They are no-ops unless a global MeterProvider is installed.
type sessionMetrics struct {
	ticks      metric.Int64Counter
	collisions metric.Int64Counter
	recycles   metric.Int64Counter
	tickTime   metric.Float64Histogram
}

func newSessionMetrics() (*sessionMetrics, error) {
	m := meter()
	sm := &sessionMetrics{}

	var err error
	sm.ticks, err = m.Int64Counter(
		"game.ticks",
		metric.WithDescription("Total simulation ticks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	sm.collisions, err = m.Int64Counter(
		"game.collisions",
		metric.WithDescription("Total collisions that reset a session"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collisions counter: %w", err)
	}

	sm.recycles, err = m.Int64Counter(
		"game.traffic.recycled",
		metric.WithDescription("Total traffic vehicles recycled to the near end of the road"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recycle counter: %w", err)
	}

	sm.tickTime, err = m.Float64Histogram(
		"game.tick.duration",
		metric.WithDescription("Wall time spent in one simulation step"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	return sm, nil
}

func (sm *sessionMetrics) record(report TickReport, elapsed time.Duration) {
	ctx := context.Background()
	sm.ticks.Add(ctx, 1)
	if report.Collided {
		sm.collisions.Add(ctx, 1)
	}
	if report.Recycled > 0 {
		sm.recycles.Add(ctx, int64(report.Recycled))
	}
	sm.tickTime.Record(ctx, float64(elapsed)/float64(time.Millisecond))
}
