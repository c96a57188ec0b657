package metrics

import "github.com/kilianp07/chargehub/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr exposes /metrics on this address while a run is in
	// progress. Empty disables the endpoint.
	PrometheusAddr string `json:"prometheus_addr"`
}
