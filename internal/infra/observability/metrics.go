package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	storeErrors        *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	vehiclesSold       *prometheus.CounterVec
	vehiclesArchived   *prometheus.CounterVec
	commissionsCreated *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mgm_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mgm_store_errors_total",
				Help: "Total errors returned by storage backends.",
			},
			[]string{"backend"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mgm_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mgm_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		vehiclesSold: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mgm_vehicles_sold_total",
				Help: "Vehicles moved from for-sale to sold.",
			},
			[]string{"type"},
		),
		vehiclesArchived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mgm_vehicles_archived_total",
				Help: "Vehicles moved from sold to the archive.",
			},
			[]string{"type"},
		),
		commissionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mgm_commissions_created_total",
				Help: "Commissions generated, by vehicle type.",
			},
			[]string{"type"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the storage error counter.
func (m *Metrics) IncrStoreError(backend string) {
	m.storeErrors.WithLabelValues(backend).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncrVehicleSold(vehicleType string) {
	m.vehiclesSold.WithLabelValues(vehicleType).Inc()
}

func (m *Metrics) IncrVehicleArchived(vehicleType string) {
	m.vehiclesArchived.WithLabelValues(vehicleType).Inc()
}

func (m *Metrics) IncrCommissionCreated(vehicleType string) {
	m.commissionsCreated.WithLabelValues(vehicleType).Inc()
}

// Snapshot summarizes the counters for GET /v1/metrics/summary.
func (m *Metrics) Snapshot() *domain.OperationalMetrics {
	count, sum := histogramTotals(m.requestDuration)
	hits := counterTotal(m.cacheHits)
	misses := counterTotal(m.cacheMisses)

	avgLatencyMs := float64(0)
	if count > 0 {
		avgLatencyMs = sum / float64(count) * 1000
	}
	cacheHitRate := float64(0)
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.OperationalMetrics{
		TotalRequests:      int64(count),
		AvgLatencyMs:       avgLatencyMs,
		StoreErrors:        int64(counterTotal(m.storeErrors)),
		CacheHitRate:       cacheHitRate,
		VehiclesSold:       int64(counterTotal(m.vehiclesSold)),
		VehiclesArchived:   int64(counterTotal(m.vehiclesArchived)),
		CommissionsCreated: int64(counterTotal(m.commissionsCreated)),
	}
}

// counterTotal sums a CounterVec across all of its label values.
func counterTotal(cv *prometheus.CounterVec) float64 {
	total := float64(0)
	for _, mf := range collect(cv) {
		if mf.Counter != nil && mf.Counter.Value != nil {
			total += *mf.Counter.Value
		}
	}
	return total
}

func histogramTotals(hv *prometheus.HistogramVec) (uint64, float64) {
	var count uint64
	var sum float64
	for _, mf := range collect(hv) {
		if h := mf.Histogram; h != nil {
			count += h.GetSampleCount()
			sum += h.GetSampleSum()
		}
	}
	return count, sum
}

func collect(c prometheus.Collector) []*dto.Metric {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	var out []*dto.Metric
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}
