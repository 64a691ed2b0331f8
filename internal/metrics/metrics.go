// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics holds the Prometheus collectors for the listing workflow,
// the auth gate and the HTTP layer. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for tyre listings.
type Metrics struct {
	TyresCreated         prometheus.Counter
	TyresUpdated         prometheus.Counter
	TyresDeleted         prometheus.Counter
	IndexRepairs         *prometheus.CounterVec
	ImageCleanupFailures prometheus.Counter
	LoginFailures        prometheus.Counter
	HTTPRequestDuration  *prometheus.HistogramVec
	ReconcileDuration    prometheus.Histogram
}

// New registers all collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TyresCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "tyremarket_tyres_created_total",
			Help: "Total number of tyres created",
		}),
		TyresUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "tyremarket_tyres_updated_total",
			Help: "Total number of tyres updated",
		}),
		TyresDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "tyremarket_tyres_deleted_total",
			Help: "Total number of tyres deleted",
		}),
		IndexRepairs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tyremarket_seller_index_repairs_total",
			Help: "Seller listing index entries repaired, by kind (missing, dangling)",
		}, []string{"kind"}),
		ImageCleanupFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tyremarket_image_cleanup_failures_total",
			Help: "Stored images that could not be removed",
		}),
		LoginFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tyremarket_login_failures_total",
			Help: "Rejected login attempts",
		}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tyremarket_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "status"}),
		ReconcileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tyremarket_reconcile_duration_seconds",
			Help:    "Duration of seller index reconciliation passes",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementTyresCreated records a successful tyre creation.
func (m *Metrics) IncrementTyresCreated() {
	if m != nil {
		m.TyresCreated.Inc()
	}
}

// IncrementTyresUpdated records a successful tyre update.
func (m *Metrics) IncrementTyresUpdated() {
	if m != nil {
		m.TyresUpdated.Inc()
	}
}

// IncrementTyresDeleted records a successful tyre deletion.
func (m *Metrics) IncrementTyresDeleted() {
	if m != nil {
		m.TyresDeleted.Inc()
	}
}

// AddIndexRepairs records n repaired index entries of the given kind.
func (m *Metrics) AddIndexRepairs(kind string, n int64) {
	if m != nil && n > 0 {
		m.IndexRepairs.WithLabelValues(kind).Add(float64(n))
	}
}

// IncrementImageCleanupFailures records an image that was left behind.
func (m *Metrics) IncrementImageCleanupFailures() {
	if m != nil {
		m.ImageCleanupFailures.Inc()
	}
}

// IncrementLoginFailures records a rejected login.
func (m *Metrics) IncrementLoginFailures() {
	if m != nil {
		m.LoginFailures.Inc()
	}
}

// ObserveHTTPRequest records the duration of a served request.
// Call with time.Now() at the start of the request.
func (m *Metrics) ObserveHTTPRequest(method string, status int, start time.Time) {
	if m != nil {
		m.HTTPRequestDuration.WithLabelValues(method, statusClass(status)).Observe(time.Since(start).Seconds())
	}
}

// ObserveReconcile records the duration of a reconciliation pass.
func (m *Metrics) ObserveReconcile(start time.Time) {
	if m != nil {
		m.ReconcileDuration.Observe(time.Since(start).Seconds())
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
