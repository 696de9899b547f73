// Package prometheus provides Prometheus collectors for parley metrics.
//
// [NewPrometheusExporter] accepts a [parley.Engine] and exposes an [http.Handler]
// that renders all parley counters and histograms in Prometheus text exposition format.
// Counter names are prefixed parley_*_total; the single histogram is
// parley_conversation_create_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
