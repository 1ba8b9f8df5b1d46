// Package metrics exposes the harvester's per-run counters as
// Prometheus counters, grounded on mq-hub/app/metrics/metrics.go's
// promauto registration shape, adapted from event-bus counters to the
// named skipped_since_*/unsuccessful counters spec §7/§8 defines.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	downloadsUnsuccessful = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zoterharvest",
		Name:      "downloads_harvested_unsuccessful_total",
		Help:      "Harvest attempts whose download failed (num_downloads_harvested_unsuccessful_).",
	})

	conversionsUnsuccessful = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zoterharvest",
		Name:      "marc_conversions_unsuccessful_total",
		Help:      "Conversion attempts that raised a ConversionError (num_marc_conversions_unsuccessful_).",
	})

	skippedByReason = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zoterharvest",
		Name:      "skipped_total",
		Help:      "Items skipped, labeled by the skipped_since_* reason.",
	}, []string{"reason"})

	deliveredByGroup = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zoterharvest",
		Name:      "delivered_records_total",
		Help:      "Catalog records successfully written, labeled by group.",
	}, []string{"group"})
)

// Sink implements internal/convert.MetricsSink and the download-failure,
// conversion-failure and delivery counts the pipeline driver records,
// plus the per-group/per-reason counters a final run summary reads back
// out.
type Sink struct {
	mu      sync.Mutex
	skipped map[string]int64
	delivered map[string]int64
	downloadFailures   int64
	conversionFailures int64
}

func NewSink() *Sink {
	return &Sink{skipped: make(map[string]int64), delivered: make(map[string]int64)}
}

// IncSkip satisfies internal/convert.MetricsSink.
func (s *Sink) IncSkip(reason string) {
	skippedByReason.WithLabelValues(reason).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped[reason]++
}

func (s *Sink) IncDownloadFailure() {
	downloadsUnsuccessful.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloadFailures++
}

func (s *Sink) IncConversionFailure() {
	conversionsUnsuccessful.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversionFailures++
}

func (s *Sink) IncDelivered(group string) {
	deliveredByGroup.WithLabelValues(group).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered[group]++
}

// Summary is a point-in-time snapshot suitable for the final textual
// report (spec §7).
type Summary struct {
	DownloadFailures   int64
	ConversionFailures int64
	Skipped            map[string]int64
	DeliveredByGroup   map[string]int64
}

func (s *Sink) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Summary{
		DownloadFailures:   s.downloadFailures,
		ConversionFailures: s.conversionFailures,
		Skipped:            make(map[string]int64, len(s.skipped)),
		DeliveredByGroup:   make(map[string]int64, len(s.delivered)),
	}
	for k, v := range s.skipped {
		out.Skipped[k] = v
	}
	for k, v := range s.delivered {
		out.DeliveredByGroup[k] = v
	}
	return out
}
