// Package infra contains technical adapters such as result stores, metrics
// exporters and report renderers. These packages should depend only on the
// interfaces defined in the core packages.
package infra
