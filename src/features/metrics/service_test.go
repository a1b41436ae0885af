package metrics

import (
	"testing"
)

func TestSummary_ReportsGauges(t *testing.T) {
	svc, err := NewService(Gauges{
		Queued:    func() int { return 3 },
		Suspended: func() bool { return true },
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	summary, err := svc.Summary()
	if err != nil {
		t.Fatal(err)
	}
	values := map[string]float64{}
	for _, m := range summary {
		if len(m.Labels) == 0 {
			values[m.Name] = m.Value
		}
	}
	if values["soulwrite_writeback_queued_tracks"] != 3 {
		t.Errorf("expected queued gauge 3, got %v", values["soulwrite_writeback_queued_tracks"])
	}
	if values["soulwrite_writeback_suspended"] != 1 {
		t.Errorf("expected suspended gauge 1, got %v", values["soulwrite_writeback_suspended"])
	}
}

func TestSummary_ReportsCounters(t *testing.T) {
	svc, err := NewService(Gauges{})
	if err != nil {
		t.Fatal(err)
	}
	before := counterValue(t, svc, "soulwrite_recycle_deletions_total", DeletionTrashed)
	Deletions.WithLabelValues(DeletionTrashed).Inc()
	after := counterValue(t, svc, "soulwrite_recycle_deletions_total", DeletionTrashed)
	if after != before+1 {
		t.Errorf("expected counter to grow by one, got %v -> %v", before, after)
	}
}

func counterValue(t *testing.T, svc *Service, name, outcome string) float64 {
	t.Helper()
	summary, err := svc.Summary()
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range summary {
		if m.Name == name && m.Labels["outcome"] == outcome {
			return m.Value
		}
	}
	return 0
}
