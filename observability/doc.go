// Package observability provides an OpenTelemetry metrics extension that
// counts lifecycle events: enqueues, starts, completions, failures and
// worker starts. Register it on an ext.Registry.
//
// For per-execution spans and duration histograms, see the middleware
// package: middleware.Tracing() and middleware.Metrics().
package observability
