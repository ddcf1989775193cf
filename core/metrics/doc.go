// Package metrics defines the sink interface toll quotes are reported to.
// Concrete sinks (Prometheus, InfluxDB) live in infra/metrics and register
// themselves by name so configuration can select them; several configured
// sinks are combined into a MultiSink.
package metrics
