package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/plus3/tempo/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts engine activity. A Metrics built from a disabled config
// records nothing, and so does a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	stepped     prometheus.Counter
	finished    prometheus.Counter
	cancelled   prometheus.Counter
	transitions *prometheus.CounterVec
	frameTime   prometheus.Histogram
	entities    prometheus.Gauge
	coroutines  prometheus.Gauge
}

// NewMetrics registers the engine metrics on a fresh registry.
func NewMetrics(cfg config.MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{}, nil
	}

	ns := cfg.Namespace
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stepped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "task_steps_total",
			Help:      "Task steps whose marker was applied",
		}),
		finished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "tasks_finished_total",
			Help:      "Task stacks that ran to completion",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "tasks_cancelled_total",
			Help:      "Task stacks dropped before completing",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "state_transitions_total",
			Help:      "State machine transitions by target state",
		}, []string{"to"}),
		frameTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "frame_duration_seconds",
			Help:      "Wall time spent in one scheduler tick",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "entities",
			Help:      "Entities in storage",
		}),
		coroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "coroutines",
			Help:      "Coroutines tracked by the registry",
		}),
	}

	if err := registerAll(m.registry,
		m.stepped, m.finished, m.cancelled, m.transitions,
		m.frameTime, m.entities, m.coroutines,
	); err != nil {
		return nil, err
	}
	return m, nil
}

func registerAll(r *prometheus.Registry, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// TaskStepped implements coroutine.Observer.
func (m *Metrics) TaskStepped() {
	if m.enabled() {
		m.stepped.Inc()
	}
}

// TaskFinished implements coroutine.Observer.
func (m *Metrics) TaskFinished() {
	if m.enabled() {
		m.finished.Inc()
	}
}

// TaskCancelled implements coroutine.Observer.
func (m *Metrics) TaskCancelled() {
	if m.enabled() {
		m.cancelled.Inc()
	}
}

// StateChanged implements fsm.Observer.
func (m *Metrics) StateChanged(_, to int) {
	if m.enabled() {
		m.transitions.WithLabelValues(strconv.Itoa(to)).Inc()
	}
}

// ObserveFrame records the wall time of one tick.
func (m *Metrics) ObserveFrame(d time.Duration) {
	if m.enabled() {
		m.frameTime.Observe(d.Seconds())
	}
}

// SetPopulation records the current entity and coroutine counts.
func (m *Metrics) SetPopulation(entities, coroutines int) {
	if m.enabled() {
		m.entities.Set(float64(entities))
		m.coroutines.Set(float64(coroutines))
	}
}

// Registry returns the registry the metrics live on, or nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if !m.enabled() {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format. When
// metrics are disabled it responds 404.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes Handler at /metrics on addr until ctx is done. It returns
// once the server has shut down.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics: %w", err)
	}
	return m.serve(ctx, ln)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	select {
	case err := <-done:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down metrics server: %w", err)
	}
	if err := <-done; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
