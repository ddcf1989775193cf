// Package infra holds the technical adapters around the toll core: the
// zerolog logger, the Prometheus and InfluxDB quote sinks and the MQTT gantry.
// These packages depend only on the interfaces defined in the core packages.
package infra
