package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plantpulse/plantpulse/internal/model"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort           = 8080
	DefaultTelemetryRetention = 30 * 24 * time.Hour
	DefaultBroadcastInterval  = 5 * time.Second

	DefaultAnomalyInterval    = time.Minute
	DefaultPredictionInterval = 5 * time.Minute
	DefaultRetrainInterval    = time.Hour
	DefaultAdvisoryInterval   = time.Hour
	DefaultEscalationInterval = time.Minute
	DefaultErrorBackoff       = 30 * time.Second
)

// Config is the top-level engine configuration. Fields map 1:1 to
// config.example.yaml.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
}

// EngineConfig holds all engine-side settings.
type EngineConfig struct {
	// HTTPPort is the port the metrics/health endpoint and the WebSocket
	// hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// TelemetryRetention is how long telemetry readings remain queryable
	// before the store's retention loop evicts them (default 720h).
	TelemetryRetention time.Duration `yaml:"telemetry_retention"`

	// BroadcastInterval controls how often the WebSocket hub pushes the
	// current incident/alert picture to connected dashboards (default 5s).
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// SLAHours maps incident priority to resolution deadline hours.
	// Chosen once at incident creation and never recomputed.
	SLAHours SLAHours `yaml:"sla_hours"`

	// API guards the REST surface. Mode "none" (the default) leaves it
	// open; "apikey" requires the configured header on every request.
	API APIAuthConfig `yaml:"api"`

	Analyzer    AnalyzerConfig    `yaml:"analyzer"`
	Criticality CriticalityConfig `yaml:"criticality"`
	Assignment  AssignmentConfig  `yaml:"assignment"`
	Sweeps      SweepConfig       `yaml:"sweeps"`
	Sources     []Source          `yaml:"sources"`
	Notify      NotifyConfig      `yaml:"notify"`
	Advisory    AdvisoryConfig    `yaml:"advisory"`
	Alerts      AlertsConfig      `yaml:"alerts"`
}

// SLAHours is the per-priority resolution deadline table.
type SLAHours struct {
	Critical float64 `yaml:"critical"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
	Low      float64 `yaml:"low"`
}

// Hours returns the SLA hours for the given priority tier.
func (s SLAHours) Hours(p model.Tier) float64 {
	switch p {
	case model.TierCritical:
		return s.Critical
	case model.TierHigh:
		return s.High
	case model.TierMedium:
		return s.Medium
	default:
		return s.Low
	}
}

// Deadline returns createdAt plus the SLA window for the priority.
func (s SLAHours) Deadline(p model.Tier, createdAt time.Time) time.Time {
	return createdAt.Add(time.Duration(s.Hours(p) * float64(time.Hour)))
}

// AnalyzerConfig holds the telemetry analyzer thresholds.
type AnalyzerConfig struct {
	// StableSlope is the |slope| below which a trend is classified stable.
	StableSlope float64 `yaml:"stable_slope"`

	// ZMedium and ZHigh are the z-score thresholds for medium and high
	// severity anomaly flags.
	ZMedium float64 `yaml:"z_medium"`
	ZHigh   float64 `yaml:"z_high"`

	// CorrelationMin is the |r| above which a channel pair is surfaced.
	CorrelationMin float64 `yaml:"correlation_min"`
}

// CriticalityConfig holds the severity-fusion weights and tier cut points.
// Weights must sum to 1.0.
type CriticalityConfig struct {
	WeightFailure     float64 `yaml:"weight_failure"`
	WeightAnomaly     float64 `yaml:"weight_anomaly"`
	WeightCriticality float64 `yaml:"weight_criticality"`

	ThresholdCritical float64 `yaml:"threshold_critical"`
	ThresholdHigh     float64 `yaml:"threshold_high"`
	ThresholdMedium   float64 `yaml:"threshold_medium"`
}

// AssignmentConfig holds the technician scoring weights (must sum to 1.0)
// and selection limits.
type AssignmentConfig struct {
	WeightSpecialty   float64 `yaml:"weight_specialty"`
	WeightExperience  float64 `yaml:"weight_experience"`
	WeightWorkload    float64 `yaml:"weight_workload"`
	WeightLocation    float64 `yaml:"weight_location"`
	WeightPerformance float64 `yaml:"weight_performance"`

	// MaxAlternatives bounds the ranked alternatives recorded per Assignment.
	MaxAlternatives int `yaml:"max_alternatives"`

	// TeamSize is the technician count per candidate team in the team variant.
	TeamSize int `yaml:"team_size"`
}

// SweepConfig holds the background activity intervals. Each sweep is an
// independent task; a failing pass sleeps ErrorBackoff before retrying.
type SweepConfig struct {
	AnomalyInterval    time.Duration `yaml:"anomaly_interval"`
	PredictionInterval time.Duration `yaml:"prediction_interval"`
	RetrainInterval    time.Duration `yaml:"retrain_interval"`
	AdvisoryInterval   time.Duration `yaml:"advisory_interval"`
	EscalationInterval time.Duration `yaml:"escalation_interval"`
	ErrorBackoff       time.Duration `yaml:"error_backoff"`
}

// Source describes one equipment sensor exporter polled for telemetry.
type Source struct {
	// ID is a unique, human-readable identifier for this source.
	ID string `yaml:"id"`

	// EquipmentID is the fleet equipment the readings belong to.
	EquipmentID string `yaml:"equipment_id"`

	// Endpoint is the full URL of the exporter's metrics endpoint.
	Endpoint string `yaml:"endpoint"`

	// Auth configures how the collector authenticates to this source.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// APIAuthConfig guards inbound REST calls with a shared API key.
// The key is resolved from an environment variable, never stored inline.
type APIAuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the request header carrying the key (default x-api-key).
	Header string `yaml:"header"`

	// KeyEnv names the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the expected API key resolved from the environment.
func (a APIAuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, defaulting to
// x-api-key.
func (a APIAuthConfig) EffectiveHeader() string {
	if a.Header == "" {
		return "x-api-key"
	}
	return a.Header
}

// AuthConfig specifies the authentication mode for a source.
// Secrets are resolved from environment variables, never stored inline.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// API key fields — used when Mode == "apikey".
	Header string `yaml:"header"`
	KeyEnv string `yaml:"key_env"`

	// Bearer token field — used when Mode == "bearer".
	TokenEnv string `yaml:"token_env"`

	// Basic auth fields — used when Mode == "basic".
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// TLSConfig holds per-source TLS dial options.
type TLSConfig struct {
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// NotifyConfig holds notification delivery targets and recipient routing.
type NotifyConfig struct {
	Webhooks []WebhookConfig `yaml:"webhooks"`

	// Recipients routes alerts to escalation levels by incident priority.
	Recipients RecipientsConfig `yaml:"recipients"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// RecipientsConfig lists notification recipients per priority tier.
type RecipientsConfig struct {
	Critical []string `yaml:"critical"`
	High     []string `yaml:"high"`
	Medium   []string `yaml:"medium"`
	Low      []string `yaml:"low"`
}

// For returns the recipients for the given priority tier.
func (r RecipientsConfig) For(p model.Tier) []string {
	switch p {
	case model.TierCritical:
		return r.Critical
	case model.TierHigh:
		return r.High
	case model.TierMedium:
		return r.Medium
	default:
		return r.Low
	}
}

// AdvisoryConfig holds advisory-generator gating.
type AdvisoryConfig struct {
	// ConfidenceMin is the minimum advisor confidence accepted before the
	// engine substitutes the static fallback recommendations.
	ConfidenceMin float64 `yaml:"confidence_min"`
}

// AlertsConfig holds assessment alert rules.
type AlertsConfig struct {
	Rules []AlertRule `yaml:"rules"`
}

// AlertRule defines one threshold-based alert condition evaluated against
// health assessments.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the
	// deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "failure_probability > 0.8",
	// "anomaly_score > 0.7", "tier == critical",
	// "channel:temperature > 90".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// Load reads and parses the config file at path. Missing fields are filled
// with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. The scoring
// weights and thresholds below are the fixed policy tables; the time-to-
// failure and performance breakpoints they feed are deliberate heuristics,
// kept configurable rather than derived.
func Defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			HTTPPort:           DefaultHTTPPort,
			TelemetryRetention: DefaultTelemetryRetention,
			BroadcastInterval:  DefaultBroadcastInterval,
			SLAHours: SLAHours{
				Critical: 4,
				High:     8,
				Medium:   24,
				Low:      72,
			},
			Analyzer: AnalyzerConfig{
				StableSlope:    0.01,
				ZMedium:        2.5,
				ZHigh:          3.0,
				CorrelationMin: 0.5,
			},
			Criticality: CriticalityConfig{
				WeightFailure:     0.4,
				WeightAnomaly:     0.3,
				WeightCriticality: 0.3,
				ThresholdCritical: 0.8,
				ThresholdHigh:     0.6,
				ThresholdMedium:   0.4,
			},
			Assignment: AssignmentConfig{
				WeightSpecialty:   0.40,
				WeightExperience:  0.25,
				WeightWorkload:    0.20,
				WeightLocation:    0.10,
				WeightPerformance: 0.05,
				MaxAlternatives:   5,
				TeamSize:          3,
			},
			Sweeps: SweepConfig{
				AnomalyInterval:    DefaultAnomalyInterval,
				PredictionInterval: DefaultPredictionInterval,
				RetrainInterval:    DefaultRetrainInterval,
				AdvisoryInterval:   DefaultAdvisoryInterval,
				EscalationInterval: DefaultEscalationInterval,
				ErrorBackoff:       DefaultErrorBackoff,
			},
			Advisory: AdvisoryConfig{
				ConfidenceMin: 0.5,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	e := &cfg.Engine

	if e.HTTPPort <= 0 || e.HTTPPort > 65535 {
		return fmt.Errorf("engine.http_port %d is out of range [1, 65535]", e.HTTPPort)
	}
	if e.TelemetryRetention <= 0 {
		return fmt.Errorf("engine.telemetry_retention must be positive")
	}

	if e.SLAHours.Critical <= 0 || e.SLAHours.High <= 0 ||
		e.SLAHours.Medium <= 0 || e.SLAHours.Low <= 0 {
		return fmt.Errorf("engine.sla_hours entries must all be positive")
	}

	if err := sumsToOne("engine.criticality weights",
		e.Criticality.WeightFailure,
		e.Criticality.WeightAnomaly,
		e.Criticality.WeightCriticality); err != nil {
		return err
	}
	if !(e.Criticality.ThresholdCritical > e.Criticality.ThresholdHigh &&
		e.Criticality.ThresholdHigh > e.Criticality.ThresholdMedium &&
		e.Criticality.ThresholdMedium > 0) {
		return fmt.Errorf("engine.criticality thresholds must be strictly decreasing and positive")
	}

	if err := sumsToOne("engine.assignment weights",
		e.Assignment.WeightSpecialty,
		e.Assignment.WeightExperience,
		e.Assignment.WeightWorkload,
		e.Assignment.WeightLocation,
		e.Assignment.WeightPerformance); err != nil {
		return err
	}
	if e.Assignment.TeamSize < 1 {
		return fmt.Errorf("engine.assignment.team_size must be at least 1")
	}

	if !(e.Analyzer.ZHigh >= e.Analyzer.ZMedium && e.Analyzer.ZMedium > 0) {
		return fmt.Errorf("engine.analyzer z thresholds must satisfy 0 < z_medium <= z_high")
	}
	if e.Analyzer.CorrelationMin < 0 || e.Analyzer.CorrelationMin >= 1 {
		return fmt.Errorf("engine.analyzer.correlation_min must be in [0, 1)")
	}

	seen := make(map[string]bool, len(e.Sources))
	for _, src := range e.Sources {
		if src.ID == "" || src.EquipmentID == "" || src.Endpoint == "" {
			return fmt.Errorf("source %q: id, equipment_id and endpoint are required", src.ID)
		}
		if seen[src.ID] {
			return fmt.Errorf("source %q: duplicate id", src.ID)
		}
		seen[src.ID] = true
		switch src.Auth.Mode {
		case "apikey", "bearer", "basic", "none", "":
		default:
			return fmt.Errorf("source %q: auth.mode %q unknown: want apikey|bearer|basic|none", src.ID, src.Auth.Mode)
		}
	}

	if e.Advisory.ConfidenceMin < 0 || e.Advisory.ConfidenceMin > 1 {
		return fmt.Errorf("engine.advisory.confidence_min must be in [0, 1]")
	}

	switch e.API.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("engine.api.mode %q unknown: want apikey|none", e.API.Mode)
	}

	return nil
}

// sumsToOne verifies a weight set adds up to 1.0 within float tolerance.
func sumsToOne(what string, ws ...float64) error {
	var sum float64
	for _, w := range ws {
		if w < 0 {
			return fmt.Errorf("%s must not be negative", what)
		}
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("%s must sum to 1.0, got %.3f", what, sum)
	}
	return nil
}
