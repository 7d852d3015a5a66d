package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

var (
	// RejectedTags - The total number of tag tokens refused by the whitelist
	RejectedTags = metrics.NewCounter("htmlfilter_rejected_tags_total")
	// OrphanTags - The total number of unmatched opening tags removed
	OrphanTags = metrics.NewCounter("htmlfilter_orphan_tags_total")
	// CacheMisses - The total number of result cache misses
	CacheMisses = metrics.NewCounter("htmlfilter_cache_misses_total")
	// AuditFailures - The total number of audit rows that could not be stored
	AuditFailures = metrics.NewCounter("htmlfilter_audit_failures_total")
)

// IncRequests increments the per-endpoint request counter
func IncRequests(endpoint string) {
	metrics.GetOrCreateCounter(fmt.Sprintf("htmlfilter_requests_total{endpoint=%q}", endpoint)).Inc()
}

// ObserveDuration records how long a stage took
func ObserveDuration(endpoint string, start time.Time) {
	metrics.GetOrCreateHistogram(fmt.Sprintf("htmlfilter_filter_duration_seconds{endpoint=%q}", endpoint)).UpdateDuration(start)
}

// CacheHit increments the cache hit counter for the given level (lru or redis)
func CacheHit(level string) {
	metrics.GetOrCreateCounter(fmt.Sprintf("htmlfilter_cache_hits_total{level=%q}", level)).Inc()
}

// CacheMiss increments the cache miss counter
func CacheMiss() {
	CacheMisses.Inc()
}

// Handler for metrics
type Handler struct{}

func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	metrics.WritePrometheus(w, false)
}
