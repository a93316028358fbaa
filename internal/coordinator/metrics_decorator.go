package coordinator

import (
	"context"
	"time"

	"github.com/allisson/tokenfield/internal/metrics"
	"github.com/allisson/tokenfield/internal/record"
)

// coordinatorWithMetrics decorates Coordinator with metrics instrumentation.
type coordinatorWithMetrics struct {
	next    Coordinator
	metrics metrics.BusinessMetrics
}

// NewWithMetrics wraps a Coordinator with metrics recording.
func NewWithMetrics(next Coordinator, m metrics.BusinessMetrics) Coordinator {
	return &coordinatorWithMetrics{
		next:    next,
		metrics: m,
	}
}

// record emits the operation counter and duration histogram for one call.
func (c *coordinatorWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "coordinator", operation, status)
	c.metrics.RecordDuration(ctx, "coordinator", operation, time.Since(start), status)
}

// PreWritePass records metrics for the pre-write tokenization pass.
func (c *coordinatorWithMetrics) PreWritePass(ctx context.Context, rec *record.Record) error {
	start := time.Now()
	err := c.next.PreWritePass(ctx, rec)
	c.record(ctx, "pre_write_pass", start, err)
	return err
}

// PostIdentityPass records metrics for the post-identity reconciliation pass.
func (c *coordinatorWithMetrics) PostIdentityPass(ctx context.Context, rec *record.Record) error {
	start := time.Now()
	err := c.next.PostIdentityPass(ctx, rec)
	c.record(ctx, "post_identity_pass", start, err)
	return err
}

// Resolve records metrics for single-field reads.
func (c *coordinatorWithMetrics) Resolve(
	ctx context.Context,
	rec *record.Record,
	field string,
) (string, error) {
	start := time.Now()
	value, err := c.next.Resolve(ctx, rec, field)
	c.record(ctx, "resolve", start, err)
	return value, err
}

// ResolveMany records metrics for multi-field reads.
func (c *coordinatorWithMetrics) ResolveMany(
	ctx context.Context,
	rec *record.Record,
	fields []string,
) (map[string]string, error) {
	start := time.Now()
	values, err := c.next.ResolveMany(ctx, rec, fields)
	c.record(ctx, "resolve_many", start, err)
	return values, err
}

// Preload records metrics for collection preloads.
func (c *coordinatorWithMetrics) Preload(
	ctx context.Context,
	recs []*record.Record,
	fields ...string,
) error {
	start := time.Now()
	err := c.next.Preload(ctx, recs, fields...)
	c.record(ctx, "preload", start, err)
	return err
}

// InvalidateCache passes through; cache invalidation is a local operation.
func (c *coordinatorWithMetrics) InvalidateCache(rec *record.Record) {
	c.next.InvalidateCache(rec)
}
