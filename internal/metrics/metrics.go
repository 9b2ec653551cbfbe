package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Indicator metrics
	partitionsTotal  *prometheus.CounterVec
	rowsTotal        *prometheus.CounterVec
	nullInputs       *prometheus.CounterVec
	undefinedOutputs *prometheus.CounterVec
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	workersBusy      prometheus.Gauge
	enginesCreated   prometheus.Gauge
	enginesIdle      *prometheus.GaugeVec

	// Source metrics
	rowsLoaded    *prometheus.CounterVec
	malformedRows *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.partitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finwindow_partitions_total",
			Help: "Total number of partitions processed",
		},
		[]string{"indicator"},
	)
	r.rowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finwindow_rows_total",
			Help: "Total number of rows stepped through an engine",
		},
		[]string{"indicator"},
	)
	r.nullInputs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finwindow_null_inputs_total",
			Help: "Total number of null observations fed to an engine",
		},
		[]string{"indicator"},
	)
	r.undefinedOutputs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finwindow_undefined_outputs_total",
			Help: "Total number of null outputs (warm-up or gaps)",
		},
		[]string{"indicator"},
	)
	r.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finwindow_runs_total",
			Help: "Total number of driver runs",
		},
		[]string{"status"},
	)
	r.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finwindow_run_duration_seconds",
			Help:    "Driver run duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
	)
	r.workersBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "finwindow_workers_busy",
			Help: "Number of driver workers currently processing a partition",
		},
	)
	r.enginesCreated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "finwindow_engines_created",
			Help: "Indicator engines allocated by the driver's pool",
		},
	)
	r.enginesIdle = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finwindow_engines_idle",
			Help: "Reset engines waiting in the pool for reuse",
		},
		[]string{"indicator"},
	)
	r.rowsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finwindow_source_rows_loaded_total",
			Help: "Total number of rows loaded from a data source",
		},
		[]string{"source"},
	)
	r.malformedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finwindow_source_rows_malformed_total",
			Help: "Total number of source rows rejected as malformed",
		},
		[]string{"source"},
	)

	reg.MustRegister(r.partitionsTotal)
	reg.MustRegister(r.rowsTotal)
	reg.MustRegister(r.nullInputs)
	reg.MustRegister(r.undefinedOutputs)
	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.workersBusy)
	reg.MustRegister(r.enginesCreated)
	reg.MustRegister(r.enginesIdle)
	reg.MustRegister(r.rowsLoaded)
	reg.MustRegister(r.malformedRows)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordPartition records one partition pass of an indicator.
func (r *Registry) RecordPartition(indicator string, rows, nulls, undefined int) {
	r.partitionsTotal.WithLabelValues(indicator).Inc()
	r.rowsTotal.WithLabelValues(indicator).Add(float64(rows))
	r.nullInputs.WithLabelValues(indicator).Add(float64(nulls))
	r.undefinedOutputs.WithLabelValues(indicator).Add(float64(undefined))
}

// RecordRun records a driver run completion.
func (r *Registry) RecordRun(status string, duration float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration)
}

// WorkerBusy marks a worker as busy.
func (r *Registry) WorkerBusy() {
	r.workersBusy.Inc()
}

// WorkerIdle marks a worker as idle.
func (r *Registry) WorkerIdle() {
	r.workersBusy.Dec()
}

// RecordPool records the engine pool size after a run.
func (r *Registry) RecordPool(created int, idle map[string]int) {
	r.enginesCreated.Set(float64(created))
	for name, n := range idle {
		r.enginesIdle.WithLabelValues(name).Set(float64(n))
	}
}

// RecordLoad records rows read from a data source.
func (r *Registry) RecordLoad(source string, rows, malformed int) {
	r.rowsLoaded.WithLabelValues(source).Add(float64(rows))
	r.malformedRows.WithLabelValues(source).Add(float64(malformed))
}

// WriteTextfile dumps the current metrics in the text exposition format,
// for pickup by a node exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r)
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
