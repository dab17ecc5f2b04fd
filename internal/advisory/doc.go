// Package advisory produces maintenance recommendations for incidents.
// The generator behind the Advisor interface is best-effort enrichment:
// answers below the configured confidence floor, errors, and empty
// results all degrade to a fixed fallback recommendation list, so
// incident creation never blocks on advice.
package advisory
