package assign

import (
	"strings"

	"github.com/plantpulse/plantpulse/internal/model"
)

// specialtyRules is the keyword table behind RequiredSpecialty. Rules are
// applied in order against the combined failure-type and equipment-type
// text; the first hit wins, and no hit falls through to SpecialtyOther.
// A best-effort classifier, not a taxonomy.
var specialtyRules = []struct {
	keywords  []string
	specialty model.Specialty
}{
	{[]string{"hydraulic", "overpressure", "valve"}, model.SpecialtyHydraulic},
	{[]string{"pneumatic", "compressor", "air"}, model.SpecialtyPneumatic},
	{[]string{"electronic", "sensor", "plc", "control"}, model.SpecialtyElectronic},
	{[]string{"electrical", "motor", "overheating", "voltage", "transformer"}, model.SpecialtyElectrical},
	{[]string{"mechanical", "imbalance", "bearing", "pump", "gear", "wear"}, model.SpecialtyMechanical},
}

// RequiredSpecialty derives the trade an incident calls for from the
// predicted failure type and the equipment type string.
func RequiredSpecialty(failure model.FailureType, equipmentType string) model.Specialty {
	text := strings.ToLower(string(failure) + " " + equipmentType)
	for _, rule := range specialtyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.specialty
			}
		}
	}
	return model.SpecialtyOther
}
