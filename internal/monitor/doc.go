// Package monitor keeps rolling per-operation latency samples and reports
// count, min, max, mean and p95/p99 over the most recent window.
//
// Samples are optionally mirrored to an OpenTelemetry histogram so the
// same measurements reach an external metrics backend.
package monitor
