package enlist

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/qbixus/qtx-uow/enlist"

type instruments struct {
	enlistments     metric.Int64Counter
	prepareFailures metric.Int64Counter
	completions     metric.Int64Counter
	syncTimeouts    metric.Int64Counter
	wait            metric.Float64Histogram
}

func newInstruments(mp metric.MeterProvider) (*instruments, error) {
	meter := mp.Meter(instrumentationName)
	var (
		inst instruments
		err  error
	)
	if inst.enlistments, err = meter.Int64Counter("qtx.enlist.enlistments",
		metric.WithDescription("Units of work enlisted into an ambient transaction")); err != nil {
		return nil, err
	}
	if inst.prepareFailures, err = meter.Int64Counter("qtx.enlist.prepare_failures",
		metric.WithDescription("Prepare phases that forced a rollback")); err != nil {
		return nil, err
	}
	if inst.completions, err = meter.Int64Counter("qtx.enlist.completions",
		metric.WithDescription("Completed enlistments by outcome")); err != nil {
		return nil, err
	}
	if inst.syncTimeouts, err = meter.Int64Counter("qtx.enlist.sync_timeouts",
		metric.WithDescription("Waits for transaction completion that timed out")); err != nil {
		return nil, err
	}
	if inst.wait, err = meter.Float64Histogram("qtx.enlist.wait",
		metric.WithDescription("Time spent waiting for transaction completion"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (inst *instruments) enlisted(ctx context.Context, mode DurabilityMode) {
	inst.enlistments.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode.String())))
}

func (inst *instruments) completed(ctx context.Context, outcome Outcome) {
	inst.completions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
}

func (inst *instruments) waited(ctx context.Context, since time.Time) {
	inst.wait.Record(ctx, time.Since(since).Seconds())
}
