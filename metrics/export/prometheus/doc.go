// Package prometheus provides Prometheus collectors for goAuthClient metrics.
//
// [NewPrometheusExporter] accepts an [goAuthClient.Engine]. The exporter is a
// client_golang [prom.Collector] that callers register in their own registry,
// and it also exposes an [http.Handler] that renders every counter and
// histogram in Prometheus text exposition format without a registry.
// Counter names are prefixed goauthclient_*_total; the single histogram is
// goauthclient_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
