package model

import "fmt"

// Tier is the categorical severity scale used both for static equipment
// criticality and for derived incident priority.
type Tier string

// Tier values, ordered from least to most severe.
const (
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierHigh     Tier = "high"
	TierCritical Tier = "critical"
)

// ParseTier validates a raw tier string.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(s); t {
	case TierLow, TierMedium, TierHigh, TierCritical:
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// Weight maps a tier to its contribution in the criticality formula.
func (t Tier) Weight() float64 {
	switch t {
	case TierCritical:
		return 1.0
	case TierHigh:
		return 0.75
	case TierMedium:
		return 0.5
	default:
		return 0.25
	}
}

// Rank orders tiers for comparisons: low=0 … critical=3.
func (t Tier) Rank() int {
	switch t {
	case TierCritical:
		return 3
	case TierHigh:
		return 2
	case TierMedium:
		return 1
	default:
		return 0
	}
}

// PriorityMultiplier is the experience-score adjustment applied when the
// incident carries this priority.
func (t Tier) PriorityMultiplier() float64 {
	switch t {
	case TierCritical:
		return 1.4
	case TierHigh:
		return 1.2
	case TierLow:
		return 0.8
	default:
		return 1.0
	}
}

// Status is the incident lifecycle state.
type Status string

// Incident lifecycle states. Escalation is an orthogonal flag on the
// incident, not a status.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Channel names one sensor stream in a telemetry reading.
type Channel string

// Known sensor channels. Readings are sparse: any subset may be present.
const (
	ChannelTemperature Channel = "temperature"
	ChannelVibration   Channel = "vibration"
	ChannelPressure    Channel = "pressure"
	ChannelHumidity    Channel = "humidity"
	ChannelVoltage     Channel = "voltage"
	ChannelCurrent     Channel = "current"
)

// Channels lists all known channels in a stable order.
func Channels() []Channel {
	return []Channel{
		ChannelTemperature,
		ChannelVibration,
		ChannelPressure,
		ChannelHumidity,
		ChannelVoltage,
		ChannelCurrent,
	}
}

// Specialty is a technician's trade. SpecialtyOther is the explicit
// fallback for trades outside the closed set.
type Specialty string

// Technician specialties.
const (
	SpecialtyMechanical Specialty = "mechanical"
	SpecialtyElectrical Specialty = "electrical"
	SpecialtyElectronic Specialty = "electronic"
	SpecialtyHydraulic  Specialty = "hydraulic"
	SpecialtyPneumatic  Specialty = "pneumatic"
	SpecialtyOther      Specialty = "other"
)

// ParseSpecialty validates a raw specialty string, mapping unknown values
// to SpecialtyOther rather than failing.
func ParseSpecialty(s string) Specialty {
	switch sp := Specialty(s); sp {
	case SpecialtyMechanical, SpecialtyElectrical, SpecialtyElectronic,
		SpecialtyHydraulic, SpecialtyPneumatic:
		return sp
	}
	return SpecialtyOther
}

// SkillLevel is a technician's proficiency band.
type SkillLevel string

// Skill levels, each with a fixed experience-score multiplier.
const (
	SkillJunior       SkillLevel = "junior"
	SkillIntermediate SkillLevel = "intermediate"
	SkillSenior       SkillLevel = "senior"
	SkillExpert       SkillLevel = "expert"
)

// Multiplier returns the experience-score factor for the skill level.
// Unknown levels fall back to the intermediate factor.
func (l SkillLevel) Multiplier() float64 {
	switch l {
	case SkillJunior:
		return 0.6
	case SkillSenior:
		return 1.0
	case SkillExpert:
		return 1.2
	default:
		return 0.8
	}
}

// Availability is a technician's duty state. Only available technicians
// are considered by the assignment engine.
type Availability string

// Availability states.
const (
	Available Availability = "available"
	Busy      Availability = "busy"
	OffShift  Availability = "off_shift"
	OnLeave   Availability = "on_leave"
)

// FailureType is the engine's best guess at the failure mode.
type FailureType string

// Failure modes from the channel-threshold rule table.
const (
	FailureOverheating  FailureType = "overheating"
	FailureImbalance    FailureType = "imbalance"
	FailureOverpressure FailureType = "overpressure"
	FailureGeneralWear  FailureType = "general_wear"
)
