package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a tracer for the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartServiceSpan starts a span for service operations
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", service),
			attribute.String("service.operation", operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// HuntMetrics holds custom hunt metrics
type HuntMetrics struct {
	lockAcquires  metric.Int64Counter
	lockConflicts metric.Int64Counter
	snapshotSaves metric.Int64Counter
	photoUploads  metric.Int64Counter
	compensations metric.Int64Counter
}

// NewHuntMetrics creates hunt metrics instruments
func NewHuntMetrics() (*HuntMetrics, error) {
	meter := otel.Meter(instrumentationName)

	lockAcquires, err := meter.Int64Counter(
		"huntsync.lock.acquires",
		metric.WithDescription("Total number of device lock acquisitions"),
		metric.WithUnit("{acquires}"),
	)
	if err != nil {
		return nil, err
	}

	lockConflicts, err := meter.Int64Counter(
		"huntsync.lock.conflicts",
		metric.WithDescription("Total number of rejected lock attempts"),
		metric.WithUnit("{conflicts}"),
	)
	if err != nil {
		return nil, err
	}

	snapshotSaves, err := meter.Int64Counter(
		"huntsync.progress.saves",
		metric.WithDescription("Total number of snapshot overwrites"),
		metric.WithUnit("{saves}"),
	)
	if err != nil {
		return nil, err
	}

	photoUploads, err := meter.Int64Counter(
		"huntsync.photo.uploads",
		metric.WithDescription("Total number of proof-photo uploads"),
		metric.WithUnit("{uploads}"),
	)
	if err != nil {
		return nil, err
	}

	compensations, err := meter.Int64Counter(
		"huntsync.upload.compensations",
		metric.WithDescription("Uploads whose progress link failed and were undone"),
		metric.WithUnit("{compensations}"),
	)
	if err != nil {
		return nil, err
	}

	return &HuntMetrics{
		lockAcquires:  lockAcquires,
		lockConflicts: lockConflicts,
		snapshotSaves: snapshotSaves,
		photoUploads:  photoUploads,
		compensations: compensations,
	}, nil
}

// RecordLockAcquire records a lock acquisition attempt
func (m *HuntMetrics) RecordLockAcquire(ctx context.Context, teamID string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	if teamID != "" {
		attrs = append(attrs, TeamID(teamID))
	}
	m.lockAcquires.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLockConflict records a rejected acquisition
func (m *HuntMetrics) RecordLockConflict(ctx context.Context) {
	m.lockConflicts.Add(ctx, 1)
}

// RecordSnapshotSave records a progress overwrite
func (m *HuntMetrics) RecordSnapshotSave(ctx context.Context, teamID string, stopCount int) {
	m.snapshotSaves.Add(ctx, 1, metric.WithAttributes(
		TeamID(teamID),
		attribute.Int("stop_count", stopCount),
	))
}

// RecordPhotoUpload records an upload attempt by path
func (m *HuntMetrics) RecordPhotoUpload(ctx context.Context, path string, fileSize int64, success bool) {
	m.photoUploads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("upload_path", path),
		attribute.Int64("file_size", fileSize),
		attribute.Bool("success", success),
	))
}

// RecordCompensation records an undone upload
func (m *HuntMetrics) RecordCompensation(ctx context.Context, path string) {
	m.compensations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("upload_path", path),
	))
}
