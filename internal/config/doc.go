// Package config loads and watches the engine configuration file
// (config.yaml).
//
// The `engine:` section carries the policy tables the decision engine
// consumes: the per-priority SLA hour table, the criticality fusion
// weights and tier cut points, the technician scoring weights, the
// analyzer thresholds, the background sweep intervals, the telemetry
// source list, and the notification/advisory/alert settings.
//
// Load(path) applies defaults before unmarshalling, then validates
// (weight sets must sum to 1.0, thresholds must be ordered, sources must
// be unique). Secrets — source credentials and webhook URLs — are
// resolved from environment variables, never stored inline.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and
// calls onChange with the newly parsed Config, keeping the previous
// config when a reload fails.
package config
