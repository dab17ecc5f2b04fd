// Package alerts implements the rule evaluation engine for equipment
// health assessments. Rules are simple threshold expressions over
// assessment fields; firing and resolving alerts are pushed through the
// notification dispatcher with per-rule cooldowns.
package alerts
