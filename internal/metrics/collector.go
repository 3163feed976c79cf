// Package metrics exposes QRET activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/qret/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "qret"

// Collector holds all Prometheus metrics of one host, on a private registry.
type Collector struct {
	registry *prometheus.Registry

	Clicks        *prometheus.CounterVec
	PhaseAdvances *prometheus.CounterVec
	Dispatches    *prometheus.CounterVec
	Derivations   prometheus.Counter
	Unreceipted   prometheus.Counter
	RefundCents   prometheus.Histogram
	HTTPRequests  *prometheus.CounterVec
}

// NewCollector creates and registers the metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Clicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "clicks_total",
			Help:      "Clicks handled, by the role of the node that handled them.",
		}, []string{"role"}),
		PhaseAdvances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "phase_advances_total",
			Help:      "Phase changes, by target phase.",
		}, []string{"phase"}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "dispatches_total",
			Help:      "Transaction slot replacements, by slot.",
		}, []string{"slot"}),
		Derivations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "derivations_total",
			Help:      "Refund derivations served.",
		}),
		Unreceipted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "unreceipted_units_total",
			Help:      "Units refunded without a matching receipt.",
		}),
		RefundCents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "refund_cents",
			Help:      "Derived refund totals in minor units.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
	}

	c.registry.MustRegister(
		c.Clicks, c.PhaseAdvances, c.Dispatches,
		c.Derivations, c.Unreceipted, c.RefundCents, c.HTTPRequests,
	)
	return c
}

// Registry returns the private registry, e.g. for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Hooks binds the collector to session lifecycle events.
func (c *Collector) Hooks() domain.Hooks {
	return domain.Hooks{
		OnClick: func(_ context.Context, e *domain.ClickEvent) {
			role := "none"
			if e.Effect.Op != domain.OpNone {
				role = e.Effect.Role.String()
			}
			c.Clicks.WithLabelValues(role).Inc()
		},
		OnPhase: func(_ context.Context, e *domain.PhaseEvent) {
			c.PhaseAdvances.WithLabelValues(string(e.To)).Inc()
		},
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			c.Dispatches.WithLabelValues(e.Slot).Inc()
		},
		OnDerive: func(_ context.Context, e *domain.DeriveEvent) {
			c.Derivations.Inc()
			c.Unreceipted.Add(float64(e.UnreceiptedQty))
			c.RefundCents.Observe(float64(e.TotalValueCents))
		},
	}
}

// ObserveHTTP counts one finished request.
func (c *Collector) ObserveHTTP(method, route string, status int) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
