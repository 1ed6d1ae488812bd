package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks operational counters for a crawl run.
type Metrics struct {
	// Request metrics
	RequestsTotal   atomic.Int64
	RequestsFailed  atomic.Int64
	BytesDownloaded atomic.Int64
	InFlight        atomic.Int64

	// Listing pages
	PagesFetched atomic.Int64
	PagesSkipped atomic.Int64

	// Records
	CoursesFull     atomic.Int64
	CoursesPartial  atomic.Int64
	ProgramsFull    atomic.Int64
	ProgramsPartial atomic.Int64
	RecordsStored   atomic.Int64

	registry *prometheus.Registry
	handler  http.Handler
	logger   *slog.Logger
}

const namespace = "catalogcrawl"

// NewMetrics creates a Metrics instance with its own Prometheus registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		logger:   logger.With("component", "metrics"),
	}
	m.register()
	return m
}

// register exposes every counter on the registry, read at scrape time.
func (m *Metrics) register() {
	for _, c := range []struct {
		name  string
		help  string
		value *atomic.Int64
	}{
		{"requests_total", "Total catalog requests made", &m.RequestsTotal},
		{"requests_failed_total", "Total failed catalog requests", &m.RequestsFailed},
		{"bytes_downloaded_total", "Total bytes downloaded", &m.BytesDownloaded},
		{"pages_fetched_total", "Listing pages fetched", &m.PagesFetched},
		{"pages_skipped_total", "Listing pages skipped after a failure", &m.PagesSkipped},
		{"courses_full_total", "Course records with all fields", &m.CoursesFull},
		{"courses_partial_total", "Course records with missing fields", &m.CoursesPartial},
		{"programs_full_total", "Program records with all fields", &m.ProgramsFull},
		{"programs_partial_total", "Program records with missing fields", &m.ProgramsPartial},
		{"records_stored_total", "Records handed to storage", &m.RecordsStored},
	} {
		v := c.value
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Namespace: namespace, Name: c.name, Help: c.help},
			func() float64 { return float64(v.Load()) },
		))
	}

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Namespace: namespace, Name: "in_flight", Help: "Top-level fetch operations currently admitted"},
		func() float64 { return float64(m.InFlight.Load()) },
	))
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// StartServer serves metrics until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_total":   m.RequestsTotal.Load(),
		"requests_failed":  m.RequestsFailed.Load(),
		"bytes_downloaded": m.BytesDownloaded.Load(),
		"pages_fetched":    m.PagesFetched.Load(),
		"pages_skipped":    m.PagesSkipped.Load(),
		"courses_full":     m.CoursesFull.Load(),
		"courses_partial":  m.CoursesPartial.Load(),
		"programs_full":    m.ProgramsFull.Load(),
		"programs_partial": m.ProgramsPartial.Load(),
		"records_stored":   m.RecordsStored.Load(),
	}
}
