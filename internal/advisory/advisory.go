package advisory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/plantpulse/plantpulse/internal/config"
)

// Query is one maintenance question scoped to a piece of equipment.
type Query struct {
	Text        string `json:"text"`
	EquipmentID string `json:"equipment_id,omitempty"`
}

// Advice is the generator's best-effort answer with provenance.
type Advice struct {
	Answer     string   `json:"answer"`
	Citations  []string `json:"citations,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Advisor is the pluggable advisory-generation capability.
type Advisor interface {
	Advise(ctx context.Context, q Query) (Advice, error)
}

// FallbackRecommendations is returned whenever the advisor errors or
// answers below the confidence floor. Fixed, generic, always safe.
func FallbackRecommendations() []string {
	return []string{
		"Review equipment operating parameters",
		"Check for unusual sounds or vibrations",
		"Schedule maintenance inspection",
		"Monitor equipment closely",
	}
}

// Service gates an Advisor behind a confidence floor and turns free-text
// answers into actionable recommendation lines. Advisory output enriches
// incidents but never blocks them; every failure path degrades to the
// fixed fallback list.
type Service struct {
	advisor Advisor
	minConf float64
}

// NewService wraps advisor with the configured confidence floor.
func NewService(advisor Advisor, cfg config.AdvisoryConfig) *Service {
	return &Service{advisor: advisor, minConf: cfg.ConfidenceMin}
}

// Recommendations answers q as a list of recommendation lines. A nil
// advisor, an advisor error or a low-confidence answer all yield the
// fallback list.
func (s *Service) Recommendations(ctx context.Context, q Query) []string {
	if s.advisor == nil {
		return FallbackRecommendations()
	}
	advice, err := s.advisor.Advise(ctx, q)
	if err != nil {
		slog.Warn("advisory: generator failed — using fallback",
			"equipment_id", q.EquipmentID,
			"err", err,
		)
		return FallbackRecommendations()
	}
	if advice.Confidence < s.minConf {
		slog.Debug("advisory: low confidence — using fallback",
			"equipment_id", q.EquipmentID,
			"confidence", advice.Confidence,
		)
		return FallbackRecommendations()
	}
	recs := ParseRecommendations(advice.Answer)
	if len(recs) == 0 {
		return FallbackRecommendations()
	}
	return recs
}

// actionWords mark a sentence as a recommendation rather than narration.
// A best-effort classifier with a stable word list.
var actionWords = []string{
	"check", "inspect", "replace", "schedule", "monitor", "review",
	"lubricate", "tighten", "clean", "calibrate", "reduce", "verify",
}

// ParseRecommendations extracts actionable lines from free advisory
// text. Bulleted lines are taken as-is; plain sentences qualify when
// they start with or contain an action word.
func ParseRecommendations(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if trimmed, ok := stripBullet(line); ok {
			out = append(out, trimmed)
			continue
		}
		for _, sentence := range strings.Split(line, ". ") {
			sentence = strings.TrimSuffix(strings.TrimSpace(sentence), ".")
			if sentence == "" {
				continue
			}
			lower := strings.ToLower(sentence)
			for _, w := range actionWords {
				if strings.Contains(lower, w) {
					out = append(out, sentence)
					break
				}
			}
		}
	}
	return out
}

func stripBullet(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	return line, false
}
