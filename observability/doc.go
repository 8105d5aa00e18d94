// Package observability exports grid engine metrics to Prometheus.
//
// Register a collector and pass it to the engine:
//
//	reg := prometheus.NewRegistry()
//	pc := observability.NewPrometheusCollector(reg)
//	e := gridgo.New(rows, gridgo.WithMetricsCollector(pc))
package observability
