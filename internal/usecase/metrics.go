package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ContentCurator/usecase"

// runMetrics holds the counters a refresh run reports. With no meter configured the
// global provider is used, which is a no-op until the process installs one.
type runMetrics struct {
	runs           metric.Int64Counter
	fetched        metric.Int64Counter
	malformed      metric.Int64Counter
	adapterFailure metric.Int64Counter
	inserted       metric.Int64Counter
	duplicates     metric.Int64Counter
	filtered       metric.Int64Counter
}

func newRunMetrics(meter metric.Meter) (*runMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	m := &runMetrics{}
	for _, c := range []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.runs, "curator.refresh.runs", "Refresh runs by outcome."},
		{&m.fetched, "curator.refresh.candidates", "Valid candidates produced by adapters."},
		{&m.malformed, "curator.refresh.malformed", "Candidates skipped as malformed."},
		{&m.adapterFailure, "curator.refresh.adapter_failures", "Adapters whose contribution was discarded."},
		{&m.inserted, "curator.refresh.inserted", "Items inserted into the store."},
		{&m.duplicates, "curator.refresh.duplicates", "Items skipped by fingerprint."},
		{&m.filtered, "curator.refresh.filtered", "Items below the relevance threshold."},
	} {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	return m, nil
}

func (m *runMetrics) recordAdapter(ctx context.Context, stats AdapterStats) {
	attrs := metric.WithAttributes(attribute.String("adapter", stats.Name))
	m.fetched.Add(ctx, int64(stats.Fetched), attrs)
	m.malformed.Add(ctx, int64(stats.Malformed), attrs)
	if stats.Err != nil {
		m.adapterFailure.Add(ctx, 1, attrs)
	}
}

func (m *runMetrics) recordRun(ctx context.Context, report RunReport, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.inserted.Add(ctx, int64(report.Inserted))
	m.duplicates.Add(ctx, int64(report.Duplicates))
	m.filtered.Add(ctx, int64(report.Filtered))
}
