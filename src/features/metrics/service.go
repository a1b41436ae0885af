package metrics

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Service owns the prometheus registry of the write-back pipeline.
type Service struct {
	registry *prometheus.Registry
}

// NewService registers the pipeline counters and the given gauges on a fresh registry.
func NewService(gauges Gauges) (*Service, error) {
	registry := prometheus.NewRegistry()
	collectors := []prometheus.Collector{TracksProcessed, Drains, OrganizeOutcomes, Deletions}
	collectors = append(collectors, gauges.collectors()...)
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	slog.Debug("Metrics registry ready", "collectors", len(collectors))
	return &Service{registry: registry}, nil
}

// Registry exposes the registry for the /metrics handler.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// Metric represents a single metric data point.
type Metric struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// Summary gathers every soulwrite metric as flat JSON-friendly points.
func (s *Service) Summary() ([]Metric, error) {
	families, err := s.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	var out []Metric
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), namespace+"_") {
			continue
		}
		for _, m := range family.GetMetric() {
			point := Metric{Name: family.GetName(), Value: metricValue(family.GetType(), m)}
			if len(m.GetLabel()) > 0 {
				point.Labels = make(map[string]string, len(m.GetLabel()))
				for _, l := range m.GetLabel() {
					point.Labels[l.GetName()] = l.GetValue()
				}
			}
			out = append(out, point)
		}
	}
	return out, nil
}

func metricValue(kind dto.MetricType, m *dto.Metric) float64 {
	switch kind {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	default:
		return m.GetUntyped().GetValue()
	}
}
