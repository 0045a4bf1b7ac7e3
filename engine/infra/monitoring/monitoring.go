package monitoring

import (
	"context"
	"fmt"
	"sort"

	"github.com/compozy/flowlint/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Service owns the meter provider used by analysis components. Metrics are
// pulled on demand through a manual reader; there is no exporter endpoint.
type Service struct {
	meter       metric.Meter
	provider    *sdkmetric.MeterProvider
	reader      *sdkmetric.ManualReader
	config      *Config
	initialized bool
}

// Sample is one collected data point flattened for printing.
type Sample struct {
	Name       string  `json:"name"`
	Attributes string  `json:"attributes,omitempty"`
	Value      float64 `json:"value"`
}

func newDisabledService(cfg *Config) *Service {
	return &Service{
		config: cfg,
		meter:  noop.NewMeterProvider().Meter(cfg.Scope),
	}
}

// NewMonitoringService creates a metrics service backed by a manual reader
func NewMonitoringService(ctx context.Context, cfg *Config) (*Service, error) {
	log := logger.FromContext(ctx)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return newDisabledService(cfg), nil
	}
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	log.Debug("Monitoring service initialized", "scope", cfg.Scope)
	return &Service{
		meter:       provider.Meter(cfg.Scope),
		provider:    provider,
		reader:      reader,
		config:      cfg,
		initialized: true,
	}, nil
}

// Meter returns the OpenTelemetry meter for custom instrumentation
func (s *Service) Meter() metric.Meter {
	return s.meter
}

// SetAsGlobal installs this provider as the global OpenTelemetry meter provider
func (s *Service) SetAsGlobal() {
	if s.provider != nil {
		otel.SetMeterProvider(s.provider)
	}
}

// IsInitialized returns whether metrics are actually collected
func (s *Service) IsInitialized() bool {
	return s.initialized
}

// Collect reads every metric recorded so far, sorted by name then attributes.
// Counters and gauges report their value, histograms their observation count.
func (s *Service) Collect(ctx context.Context) ([]Sample, error) {
	if !s.initialized {
		return nil, nil
	}
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("failed to collect metrics: %w", err)
	}
	var samples []Sample
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			samples = append(samples, flatten(m)...)
		}
	}
	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Attributes < samples[j].Attributes
	})
	return samples, nil
}

func flatten(m metricdata.Metrics) []Sample {
	var out []Sample
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			out = append(out, Sample{Name: m.Name, Attributes: encode(dp.Attributes), Value: float64(dp.Value)})
		}
	case metricdata.Sum[float64]:
		for _, dp := range data.DataPoints {
			out = append(out, Sample{Name: m.Name, Attributes: encode(dp.Attributes), Value: dp.Value})
		}
	case metricdata.Gauge[int64]:
		for _, dp := range data.DataPoints {
			out = append(out, Sample{Name: m.Name, Attributes: encode(dp.Attributes), Value: float64(dp.Value)})
		}
	case metricdata.Histogram[float64]:
		for _, dp := range data.DataPoints {
			out = append(out, Sample{Name: m.Name, Attributes: encode(dp.Attributes), Value: float64(dp.Count)})
		}
	}
	return out
}

func encode(set attribute.Set) string {
	return set.Encoded(attribute.DefaultEncoder())
}

// Shutdown flushes and stops the provider
func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider != nil {
		return s.provider.Shutdown(ctx)
	}
	return nil
}
