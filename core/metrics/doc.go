// Package metrics defines the observability events emitted while sizing and
// scheduling a hub, the sink interfaces that consume them and a registry to
// build sinks from configuration.
package metrics
