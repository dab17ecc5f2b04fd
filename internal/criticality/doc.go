// Package criticality fuses a unit's failure probability, anomaly
// intensity and static importance tier into a single severity score and
// tier. The tier mapping is the single source of truth for incident
// priority when a human reporter does not supply one.
package criticality
