// Package telemetry exports run progress as Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/debrisim/internal/dynamo"
	"github.com/san-kum/debrisim/internal/physics"
)

// Collector is a dynamo.Observer backed by its own registry, so several
// runs in one process do not collide on the default registerer.
type Collector struct {
	registry *prometheus.Registry
	radius   float64

	steps    prometheus.Counter
	deorbits prometheus.Counter
	active   prometheus.Gauge
	simTime  prometheus.Gauge
	altitude prometheus.Histogram
}

func New(bodies int, surfaceRadius float64) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		radius:   surfaceRadius,
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "debrisim_body_steps_total",
			Help: "Integrator steps applied across all bodies.",
		}),
		deorbits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "debrisim_deorbits_total",
			Help: "Bodies that reached the surface radius.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "debrisim_active_bodies",
			Help: "Bodies still in orbit.",
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "debrisim_simulation_time_seconds",
			Help: "Simulated time of the last recorded step.",
		}),
		altitude: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "debrisim_altitude_km",
			Help:    "Altitude of each recorded step.",
			Buckets: prometheus.LinearBuckets(100, 100, 10),
		}),
	}

	c.registry.MustRegister(c.steps, c.deorbits, c.active, c.simTime, c.altitude)
	c.active.Set(float64(bodies))
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) OnStep(t float64, b *dynamo.Body) {
	c.steps.Inc()
	c.simTime.Set(t)
	c.altitude.Observe((physics.DistanceToOrigin(b) - c.radius) / 1000)
}

func (c *Collector) OnDeorbit(t float64, b *dynamo.Body) {
	c.deorbits.Inc()
	c.active.Dec()
}

// Handler returns the metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, logger log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	level.Info(logger).Log("msg", "serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
