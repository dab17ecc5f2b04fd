package ingest

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
)

const defaultCollectTimeout = 10 * time.Second

// ErrUpstreamUnavailable marks a scrape that failed because the sensor
// exporter could not be reached or answered with a non-200 status.
// Callers back off and retry; the equipment itself is not assumed
// unhealthy.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// sensorMetrics maps exporter metric families to telemetry channels.
// Sensor exporters publish gauges in the Prometheus text exposition
// format; families absent from a scrape simply leave the channel out of
// the reading.
var sensorMetrics = map[string]model.Channel{
	"sensor_temperature_celsius": model.ChannelTemperature,
	"sensor_vibration_mm_s":      model.ChannelVibration,
	"sensor_pressure_bar":        model.ChannelPressure,
	"sensor_humidity_percent":    model.ChannelHumidity,
	"sensor_voltage_volts":       model.ChannelVoltage,
	"sensor_current_amps":        model.ChannelCurrent,
}

// Collector polls one equipment sensor exporter and turns each scrape
// into a TelemetryReading.
type Collector struct {
	src    config.Source
	client *http.Client
	now    func() time.Time
}

// New builds a Collector for the given source. The HTTP client is built
// once and reused across collect calls.
func New(src config.Source) (*Collector, error) {
	client, err := buildHTTPClient(src)
	if err != nil {
		return nil, fmt.Errorf("collector %q: build http client: %w", src.ID, err)
	}
	return &Collector{src: src, client: client, now: time.Now}, nil
}

// WithClock overrides the collector's time source, for tests.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

// Source returns the source configuration this collector polls.
func (c *Collector) Source() config.Source { return c.src }

// Collect fetches the exporter's metrics endpoint and builds one
// reading. A scrape that reports none of the known sensor families is
// an error: it usually means the endpoint is not a sensor exporter.
func (c *Collector) Collect(ctx context.Context) (model.TelemetryReading, error) {
	mfs, err := fetchMetrics(ctx, c.client, c.src.Endpoint)
	if err != nil {
		return model.TelemetryReading{}, fmt.Errorf("collect %q: %w", c.src.ID, err)
	}

	channels := make(map[model.Channel]float64)
	for name, ch := range sensorMetrics {
		if v, ok := gaugeValue(mfs[name]); ok {
			channels[ch] = v
		}
	}
	if len(channels) == 0 {
		return model.TelemetryReading{}, fmt.Errorf("collect %q: no sensor metrics in exposition", c.src.ID)
	}

	return model.TelemetryReading{
		EquipmentID: c.src.EquipmentID,
		Timestamp:   c.now().UTC(),
		Channels:    channels,
	}, nil
}

// authRoundTripper injects authentication headers into every outgoing
// request.
type authRoundTripper struct {
	base http.RoundTripper
	src  config.Source
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.src.Auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.src.Auth.Header, t.src.Auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.src.Auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.src.Auth.Username, t.src.Auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the source's auth and
// TLS settings.
func buildHTTPClient(src config.Source) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: src.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	transport := &authRoundTripper{
		base: &http.Transport{TLSClientConfig: tlsCfg},
		src:  src,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultCollectTimeout,
	}, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric
// families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric
// families. A partial result with a non-fatal parse warning is still
// returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// gaugeValue extracts the first gauge or untyped value in a family.
// Sensor exporters publish one series per family.
func gaugeValue(mf *dto.MetricFamily) (float64, bool) {
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		switch {
		case m.Gauge != nil:
			return m.Gauge.GetValue(), true
		case m.Untyped != nil:
			return m.Untyped.GetValue(), true
		}
	}
	return 0, false
}
