package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
	"github.com/plantpulse/plantpulse/internal/notify"
)

const (
	defaultCooldown   = 15 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID          string     `json:"id"`
	RuleName    string     `json:"rule_name"`
	EquipmentID string     `json:"equipment_id"`
	Severity    string     `json:"severity"`
	Message     string     `json:"message"`
	Value       float64    `json:"value"`
	FiredAt     time.Time  `json:"fired_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	State       string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates alert rules against health assessments and pushes
// notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	dispatcher notify.Dispatcher

	mu       sync.Mutex
	rules    []config.AlertRule
	active   map[string]*Alert    // key: "ruleName:equipmentID"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // recently resolved alerts
	now      func() time.Time
}

// New creates an Engine from the alert configuration. An Engine with
// empty rules is valid — Evaluate becomes a no-op.
func New(cfg config.AlertsConfig, dispatcher notify.Dispatcher) *Engine {
	return &Engine{
		rules:      cfg.Rules,
		dispatcher: dispatcher,
		active:     make(map[string]*Alert),
		lastFire:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// WithClock overrides the engine's time source, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// SetRules replaces the rule set, typically after a config hot-reload.
// Alerts already firing stay active until their condition clears under
// a surviving rule or they age out of the recent window.
func (e *Engine) SetRules(cfg config.AlertsConfig) {
	e.mu.Lock()
	e.rules = cfg.Rules
	e.mu.Unlock()
	slog.Info("alerts: rule set replaced", "rules", len(cfg.Rules))
}

// Evaluate tests all configured rules against the assessment. Alerts
// that fire are stored and dispatched asynchronously; alerts that were
// firing but whose condition is now false are resolved.
func (e *Engine) Evaluate(a model.HealthAssessment) {
	e.mu.Lock()
	rules := e.rules
	e.mu.Unlock()
	if len(rules) == 0 {
		return
	}

	now := e.now()
	for _, rule := range rules {
		key := rule.Name + ":" + a.EquipmentID
		fires, value := evalCondition(rule.Condition, a)

		e.mu.Lock()

		if fires {
			cooldown := rule.Cooldown
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			if now.Sub(e.lastFire[key]) > cooldown {
				sev := rule.Severity
				if sev == "" {
					sev = "warning"
				}
				al := &Alert{
					ID:          fmt.Sprintf("%s:%s:%d", rule.Name, a.EquipmentID, now.UnixNano()),
					RuleName:    rule.Name,
					EquipmentID: a.EquipmentID,
					Severity:    sev,
					Value:       value,
					Message: fmt.Sprintf("[%s] %s fired on %s — %s = %.2f",
						sev, rule.Name, a.EquipmentID, rule.Condition, value),
					FiredAt: now,
					State:   "firing",
				}
				e.active[key] = al
				e.lastFire[key] = now
				alertCopy := *al
				e.mu.Unlock()

				slog.Warn("alerts: rule fired",
					"rule", rule.Name,
					"equipment_id", a.EquipmentID,
					"value", value,
					"severity", sev,
				)
				go e.deliver(alertCopy)
			} else {
				e.mu.Unlock()
			}
		} else {
			if al, ok := e.active[key]; ok && al.State == "firing" {
				resolved := now
				al.State = "resolved"
				al.ResolvedAt = &resolved
				delete(e.active, key)

				e.history = append(e.history, al)
				if len(e.history) > maxHistoryLen {
					e.history = e.history[len(e.history)-maxHistoryLen:]
				}
				alertCopy := *al
				e.mu.Unlock()

				slog.Info("alerts: rule resolved",
					"rule", rule.Name,
					"equipment_id", a.EquipmentID,
				)
				go e.deliver(alertCopy)
			} else {
				e.mu.Unlock()
			}
		}
	}
}

// deliver pushes one alert through the notification dispatcher. Failures
// are already logged by the dispatcher and never affect the engine.
func (e *Engine) deliver(a Alert) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.Dispatch(context.Background(), notify.Notification{
		Severity: severityTier(a.Severity),
		Title:    a.RuleName,
		Message:  a.Message,
		Context: map[string]string{
			"equipment_id": a.EquipmentID,
			"state":        a.State,
			"value":        fmt.Sprintf("%.2f", a.Value),
		},
	})
}

func severityTier(s string) model.Tier {
	switch s {
	case "critical":
		return model.TierCritical
	case "warning":
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}
