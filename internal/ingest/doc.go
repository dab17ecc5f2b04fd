// Package ingest polls equipment sensor exporters over HTTP and turns
// Prometheus text expositions into telemetry readings. Exporters are
// described by configured sources with optional API key, bearer or
// basic authentication.
package ingest
