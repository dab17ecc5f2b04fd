package alerts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
	"github.com/plantpulse/plantpulse/internal/notify"
)

// recordingDispatcher captures dispatched notifications and signals each
// delivery so tests can wait for the async send.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Notification
	ch   chan struct{}
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{ch: make(chan struct{}, 16)}
}

func (r *recordingDispatcher) Dispatch(_ context.Context, n notify.Notification) []notify.Delivery {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	r.mu.Unlock()
	r.ch <- struct{}{}
	return []notify.Delivery{{Channel: "test", OK: true}}
}

func (r *recordingDispatcher) wait(t *testing.T) notify.Notification {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

func testRules() config.AlertsConfig {
	return config.AlertsConfig{Rules: []config.AlertRule{
		{
			Name:      "failure-risk",
			Condition: "failure_probability > 0.8",
			Severity:  "critical",
			Cooldown:  10 * time.Minute,
		},
	}}
}

func assessmentWithProbability(p float64) model.HealthAssessment {
	a := testAssessment()
	a.FailureProbability = p
	return a
}

func TestEngine_FireAndResolve(t *testing.T) {
	d := newRecordingDispatcher()
	clock := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	e := New(testRules(), d).WithClock(func() time.Time { return clock })

	e.Evaluate(assessmentWithProbability(0.9))

	n := d.wait(t)
	if n.Severity != model.TierCritical {
		t.Errorf("severity: got %s, want critical", n.Severity)
	}
	if n.Context["equipment_id"] != "eq-1" {
		t.Errorf("equipment_id: got %q", n.Context["equipment_id"])
	}

	active := e.Active()
	if len(active) != 1 || active[0].State != "firing" {
		t.Fatalf("active: got %+v, want one firing alert", active)
	}

	// Condition recovers: the alert resolves and moves to history.
	clock = clock.Add(time.Minute)
	e.Evaluate(assessmentWithProbability(0.2))
	n = d.wait(t)
	if n.Context["state"] != "resolved" {
		t.Errorf("state: got %q, want resolved", n.Context["state"])
	}

	active = e.Active()
	if len(active) != 1 || active[0].State != "resolved" {
		t.Fatalf("active after resolve: got %+v, want one recently resolved alert", active)
	}
}

func TestEngine_CooldownSuppressesRefire(t *testing.T) {
	d := newRecordingDispatcher()
	clock := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	e := New(testRules(), d).WithClock(func() time.Time { return clock })

	e.Evaluate(assessmentWithProbability(0.9))
	d.wait(t)

	// Within the 10 minute cooldown: no second alert.
	clock = clock.Add(5 * time.Minute)
	e.Evaluate(assessmentWithProbability(0.95))
	if got := len(e.Active()); got != 1 {
		t.Fatalf("active during cooldown: got %d, want 1", got)
	}

	// After the cooldown the rule may fire again.
	clock = clock.Add(10 * time.Minute)
	e.Evaluate(assessmentWithProbability(0.95))
	d.wait(t)
}

func TestEngine_PerEquipmentKeys(t *testing.T) {
	d := newRecordingDispatcher()
	e := New(testRules(), d)

	a := assessmentWithProbability(0.9)
	e.Evaluate(a)
	d.wait(t)

	b := assessmentWithProbability(0.9)
	b.EquipmentID = "eq-2"
	e.Evaluate(b)
	d.wait(t)

	if got := len(e.Active()); got != 2 {
		t.Fatalf("active: got %d, want one alert per equipment", got)
	}
}

func TestEngine_SetRulesSwapsRuleSet(t *testing.T) {
	d := newRecordingDispatcher()
	clock := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	e := New(config.AlertsConfig{}, d).WithClock(func() time.Time { return clock })

	// No rules yet: nothing fires.
	e.Evaluate(assessmentWithProbability(0.9))
	if got := len(e.Active()); got != 0 {
		t.Fatalf("active before rules: got %d, want 0", got)
	}

	// Hot-reload introduces the rule set; the same assessment now fires.
	e.SetRules(testRules())
	e.Evaluate(assessmentWithProbability(0.9))
	d.wait(t)
	if got := len(e.Active()); got != 1 {
		t.Fatalf("active after SetRules: got %d, want 1", got)
	}
}

func TestEngine_NoRulesIsNoop(t *testing.T) {
	e := New(config.AlertsConfig{}, newRecordingDispatcher())
	e.Evaluate(testAssessment())
	if got := len(e.Active()); got != 0 {
		t.Fatalf("active: got %d, want 0", got)
	}
}
