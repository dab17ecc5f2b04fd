// Package analyzer turns raw, possibly sparse telemetry windows into
// per-channel trend classifications, z-score anomaly flags and pairwise
// channel correlations. All functions are pure and deterministic: given
// the same window they produce the same result, and they perform no I/O.
// Channels degrade independently — a channel with too few points reports
// an explicit insufficient-data result instead of failing the analysis.
package analyzer
