package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "soulwrite"

// Outcome labels shared by the write-back pipeline counters.
const (
	OutcomeWritten   = "written"
	OutcomeRetry     = "retry"
	OutcomeAbandoned = "abandoned"
	OutcomeSkipped   = "skipped"
	OutcomeMissing   = "missing"
	OutcomeDeleted   = "deleted"
	OutcomeCancelled = "cancelled"

	OrganizeMoved     = "moved"
	OrganizeCopied    = "copied"
	OrganizeUnchanged = "unchanged"
	OrganizeCollision = "collision"
	OrganizeFailed    = "failed"

	DeletionTrashed = "trashed"
	DeletionCulled  = "culled"
	DeletionFailed  = "failed"
)

var (
	TracksProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "writeback",
		Name:      "tracks_processed_total",
		Help:      "Tracks taken off the write-back queue, by outcome.",
	}, []string{"outcome"})

	Drains = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "writeback",
		Name:      "drains_total",
		Help:      "Write-back drain sessions started.",
	})

	OrganizeOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "organize",
		Name:      "outcomes_total",
		Help:      "Rename and move attempts, by outcome.",
	}, []string{"outcome"})

	Deletions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recycle",
		Name:      "deletions_total",
		Help:      "Deletion queue entries handled, by outcome.",
	}, []string{"outcome"})
)

// Gauges are read on every scrape.
type Gauges struct {
	Queued        func() int
	Deferred      func() int
	DeletionQueue func() int
	Suspended     func() bool
}

func gaugeFunc(subsystem, name, help string, fn func() float64) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn)
}

func (g Gauges) collectors() []prometheus.Collector {
	var out []prometheus.Collector
	if g.Queued != nil {
		out = append(out, gaugeFunc("writeback", "queued_tracks", "Tracks waiting in the write-back queue.",
			func() float64 { return float64(g.Queued()) }))
	}
	if g.Deferred != nil {
		out = append(out, gaugeFunc("writeback", "deferred_tracks", "Tracks waiting on the retry timer.",
			func() float64 { return float64(g.Deferred()) }))
	}
	if g.DeletionQueue != nil {
		out = append(out, gaugeFunc("recycle", "queued_paths", "Paths waiting in the deletion queue.",
			func() float64 { return float64(g.DeletionQueue()) }))
	}
	if g.Suspended != nil {
		out = append(out, gaugeFunc("writeback", "suspended", "1 while writing to disk is suspended.",
			func() float64 {
				if g.Suspended() {
					return 1
				}
				return 0
			}))
	}
	return out
}
