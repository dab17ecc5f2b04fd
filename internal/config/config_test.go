package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plantpulse/plantpulse/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `engine: {}
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Engine.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Engine.SLAHours.Critical != 4 {
		t.Errorf("sla_hours.critical: got %v, want 4", cfg.Engine.SLAHours.Critical)
	}
	if cfg.Engine.Sweeps.PredictionInterval != DefaultPredictionInterval {
		t.Errorf("sweeps.prediction_interval: got %v, want %v",
			cfg.Engine.Sweeps.PredictionInterval, DefaultPredictionInterval)
	}
	if cfg.Engine.Assignment.WeightSpecialty != 0.40 {
		t.Errorf("assignment.weight_specialty: got %v, want 0.40",
			cfg.Engine.Assignment.WeightSpecialty)
	}
}

func TestLoad_FullEngine(t *testing.T) {
	p := writeConfig(t, `engine:
  http_port: 9091
  telemetry_retention: 168h
  sla_hours:
    critical: 2
    high: 8
    medium: 24
    low: 72
  sweeps:
    anomaly_interval: 30s
  sources:
    - id: mill-01
      equipment_id: eq-mill-01
      endpoint: http://10.0.0.5:9100/metrics
      auth:
        mode: apikey
        header: x-sensor-key
        key_env: MILL_KEY
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Engine.HTTPPort)
	}
	if cfg.Engine.TelemetryRetention != 168*time.Hour {
		t.Errorf("telemetry_retention: got %v, want 168h", cfg.Engine.TelemetryRetention)
	}
	if cfg.Engine.SLAHours.Critical != 2 {
		t.Errorf("sla_hours.critical: got %v, want 2", cfg.Engine.SLAHours.Critical)
	}
	if cfg.Engine.Sweeps.AnomalyInterval != 30*time.Second {
		t.Errorf("sweeps.anomaly_interval: got %v, want 30s", cfg.Engine.Sweeps.AnomalyInterval)
	}
	// Values not overridden keep their defaults.
	if cfg.Engine.Sweeps.RetrainInterval != DefaultRetrainInterval {
		t.Errorf("sweeps.retrain_interval: got %v, want default %v",
			cfg.Engine.Sweeps.RetrainInterval, DefaultRetrainInterval)
	}
	if len(cfg.Engine.Sources) != 1 || cfg.Engine.Sources[0].EquipmentID != "eq-mill-01" {
		t.Fatalf("sources: got %+v", cfg.Engine.Sources)
	}
}

func TestLoad_KeyEnvResolution(t *testing.T) {
	t.Setenv("TEST_SENSOR_KEY", "supersecret")
	p := writeConfig(t, `engine:
  sources:
    - id: s1
      equipment_id: eq1
      endpoint: http://localhost:9100/metrics
      auth:
        mode: apikey
        key_env: TEST_SENSOR_KEY
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k := cfg.Engine.Sources[0].Auth.Key(); k != "supersecret" {
		t.Errorf("Key(): got %q, want supersecret", k)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad auth mode", `engine:
  sources:
    - id: s1
      equipment_id: eq1
      endpoint: http://x/metrics
      auth:
        mode: oauth2
`},
		{"duplicate source id", `engine:
  sources:
    - {id: s1, equipment_id: eq1, endpoint: "http://a/metrics"}
    - {id: s1, equipment_id: eq2, endpoint: "http://b/metrics"}
`},
		{"criticality weights do not sum", `engine:
  criticality:
    weight_failure: 0.9
    weight_anomaly: 0.3
    weight_criticality: 0.3
    threshold_critical: 0.8
    threshold_high: 0.6
    threshold_medium: 0.4
`},
		{"unordered thresholds", `engine:
  criticality:
    weight_failure: 0.4
    weight_anomaly: 0.3
    weight_criticality: 0.3
    threshold_critical: 0.4
    threshold_high: 0.6
    threshold_medium: 0.8
`},
		{"zero sla", `engine:
  sla_hours:
    critical: 0
    high: 8
    medium: 24
    low: 72
`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := writeConfig(t, tc.yaml)
			if _, err := Load(p); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestSLAHours_Deadline(t *testing.T) {
	sla := Defaults().Engine.SLAHours
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		priority model.Tier
		want     time.Time
	}{
		{model.TierCritical, created.Add(4 * time.Hour)},
		{model.TierHigh, created.Add(8 * time.Hour)},
		{model.TierMedium, created.Add(24 * time.Hour)},
		{model.TierLow, created.Add(72 * time.Hour)},
	}
	for _, tc := range tests {
		if got := sla.Deadline(tc.priority, created); !got.Equal(tc.want) {
			t.Errorf("Deadline(%s) = %v, want %v", tc.priority, got, tc.want)
		}
	}
}

func TestRecipients_For(t *testing.T) {
	r := RecipientsConfig{
		Critical: []string{"level3", "management"},
		High:     []string{"level2"},
		Low:      []string{"level1"},
	}
	if got := r.For(model.TierCritical); len(got) != 2 {
		t.Errorf("For(critical) = %v", got)
	}
	if got := r.For(model.TierMedium); len(got) != 0 {
		t.Errorf("For(medium) = %v, want empty (not configured)", got)
	}
}
