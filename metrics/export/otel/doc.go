// Package otel publishes engine metrics as OpenTelemetry observable
// instruments.
//
// Each counter becomes an Int64ObservableCounter and each histogram bucket
// an Int64ObservableGauge. One callback reads a single MetricsSnapshot per
// collection cycle. Callers own the MeterProvider.
package otel
