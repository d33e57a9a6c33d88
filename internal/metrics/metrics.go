// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"technofest/internal/model"
)

// Recorder is what services and handlers report to.
type Recorder interface {
	RecordHTTPStatus(statusCode int)
	RecordRegistration(success bool)
	RecordReport(report model.Report, duration time.Duration)
	RecordReportFailure()
	SetMirroredEvents(count int)
	AddLiveClients(delta int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	httpStatus     *prometheus.CounterVec
	registrations  *prometheus.CounterVec
	dashboardTotal *prometheus.GaugeVec
	reportLatency  prometheus.Histogram
	reportFail     prometheus.Counter
	mirrored       prometheus.Gauge
	liveClients    prometheus.Gauge
}

var _ Recorder = (*Collector)(nil)

// NewCollector builds a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "technofest_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "technofest_registrations_recorded_total",
			Help: "Event registrations recorded, by outcome.",
		}, []string{"outcome"}),
		dashboardTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "technofest_dashboard_total",
			Help: "Dashboard totals from the latest report.",
		}, []string{"kind"}),
		reportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "technofest_dashboard_report_seconds",
			Help:    "Time to fetch and aggregate a dashboard report.",
			Buckets: prometheus.DefBuckets,
		}),
		reportFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "technofest_dashboard_report_fail_total",
			Help: "Dashboard reports that failed to load.",
		}),
		mirrored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "technofest_mirrored_events",
			Help: "Events currently held by the catalogue mirror.",
		}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "technofest_live_clients",
			Help: "Open live catalogue websocket connections.",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.registrations,
		c.dashboardTotal,
		c.reportLatency,
		c.reportFail,
		c.mirrored,
		c.liveClients,
	)
	return c
}

// RecordHTTPStatus counts one response.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRegistration counts one best-effort registration write.
func (c *Collector) RecordRegistration(success bool) {
	outcome := "ok"
	if !success {
		outcome = "failed"
	}
	c.registrations.WithLabelValues(outcome).Inc()
}

// RecordReport publishes the totals of a fresh report.
func (c *Collector) RecordReport(report model.Report, duration time.Duration) {
	c.reportLatency.Observe(duration.Seconds())
	c.dashboardTotal.WithLabelValues("events").Set(float64(report.Stats.TotalEvents))
	c.dashboardTotal.WithLabelValues("users").Set(float64(report.Stats.TotalUsers))
	c.dashboardTotal.WithLabelValues("registrations").Set(float64(report.Stats.TotalRegistrations))
	c.dashboardTotal.WithLabelValues("upcoming").Set(float64(report.Stats.UpcomingEvents))
}

func (c *Collector) RecordReportFailure() {
	c.reportFail.Inc()
}

func (c *Collector) SetMirroredEvents(count int) {
	c.mirrored.Set(float64(count))
}

func (c *Collector) AddLiveClients(delta int) {
	c.liveClients.Add(float64(delta))
}

// Handler serves the registry in the Prometheus text format.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Nop discards everything. Used where no registry is wired, mostly tests.
type Nop struct{}

func (Nop) RecordHTTPStatus(int)                     {}
func (Nop) RecordRegistration(bool)                  {}
func (Nop) RecordReport(model.Report, time.Duration) {}
func (Nop) RecordReportFailure()                     {}
func (Nop) SetMirroredEvents(int)                    {}
func (Nop) AddLiveClients(int)                       {}
