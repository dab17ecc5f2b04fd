package advisory

import (
	"context"
	"strings"
	"sync"
)

// entry is one knowledge-base article matched by keyword.
type entry struct {
	keywords []string
	answer   string
	citation string
}

// KnowledgeBase is the in-tree Advisor: a static keyword-matched article
// set. It stands in for a retrieval-backed generator and shares its
// contract, including the refresh hook the background sweep calls.
type KnowledgeBase struct {
	mu      sync.RWMutex
	entries []entry
}

// NewKnowledgeBase returns a knowledge base preloaded with the built-in
// maintenance articles.
func NewKnowledgeBase() *KnowledgeBase {
	kb := &KnowledgeBase{}
	kb.entries = builtinEntries()
	return kb
}

func builtinEntries() []entry {
	return []entry{
		{
			keywords: []string{"overheating", "temperature", "hot"},
			answer: "Check coolant level and flow. Inspect ventilation paths for blockage. " +
				"Verify ambient temperature is within the rated range. Reduce load until the temperature stabilises.",
			citation: "maintenance-handbook/thermal",
		},
		{
			keywords: []string{"imbalance", "vibration", "bearing"},
			answer: "Inspect bearings for wear and replace if pitted. Check shaft alignment and coupling condition. " +
				"Tighten mounting bolts to specification. Schedule a balancing run at the next stop.",
			citation: "maintenance-handbook/rotating",
		},
		{
			keywords: []string{"overpressure", "pressure", "relief"},
			answer: "Verify relief valve operation and setpoint. Inspect lines for blockage. " +
				"Check pressure transmitter calibration. Reduce feed rate until pressure returns to band.",
			citation: "maintenance-handbook/pressure",
		},
		{
			keywords: []string{"wear", "lubrication", "noise"},
			answer: "Lubricate per the maintenance schedule. Inspect contact surfaces for scoring. " +
				"Monitor noise levels over the next shift. Schedule replacement of worn parts.",
			citation: "maintenance-handbook/wear",
		},
	}
}

// Advise matches q against the article set. Confidence scales with how
// many articles matched: one match 0.8, several 0.9, none 0.2.
func (kb *KnowledgeBase) Advise(ctx context.Context, q Query) (Advice, error) {
	if err := ctx.Err(); err != nil {
		return Advice{}, err
	}

	kb.mu.RLock()
	defer kb.mu.RUnlock()

	text := strings.ToLower(q.Text)
	var answers, citations []string
	for _, e := range kb.entries {
		for _, kw := range e.keywords {
			if strings.Contains(text, kw) {
				answers = append(answers, e.answer)
				citations = append(citations, e.citation)
				break
			}
		}
	}

	switch len(answers) {
	case 0:
		return Advice{Answer: "", Confidence: 0.2}, nil
	case 1:
		return Advice{Answer: answers[0], Citations: citations, Confidence: 0.8}, nil
	default:
		return Advice{Answer: strings.Join(answers, "\n"), Citations: citations, Confidence: 0.9}, nil
	}
}

// Refresh reloads the article set. The built-in base just resets to its
// compiled-in articles; a retrieval-backed implementation would re-index
// here. Called periodically by the advisory sweep.
func (kb *KnowledgeBase) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.entries = builtinEntries()
	return nil
}
