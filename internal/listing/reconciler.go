// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package listing

import (
	"context"
	"log/slog"
	"time"

	"tyremarket/internal/metrics"
)

// DefaultReconcileInterval is used when no interval is configured.
const DefaultReconcileInterval = 10 * time.Minute

// Report summarises one reconciliation pass.
type Report struct {
	Missing  int64 `json:"missing"`
	Dangling int64 `json:"dangling"`
}

// Reconciler repairs drift between tyres and sellers' listing sequences:
// tyres absent from their seller's sequence are appended, and entries
// whose tyre is gone or belongs to another seller are dropped.
type Reconciler struct {
	repo     Repairer
	tx       Transactor
	interval time.Duration
	metrics  *metrics.Metrics
}

// NewReconciler returns a Reconciler running every interval.
func NewReconciler(repo Repairer, tx Transactor, interval time.Duration, m *metrics.Metrics) *Reconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &Reconciler{repo: repo, tx: tx, interval: interval, metrics: m}
}

// Reconcile runs one pass in a single transaction.
func (r *Reconciler) Reconcile(ctx context.Context) (Report, error) {
	start := time.Now()
	defer r.metrics.ObserveReconcile(start)

	var rep Report
	err := r.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if rep.Dangling, err = r.repo.PruneDangling(ctx); err != nil {
			return err
		}
		rep.Missing, err = r.repo.RepairMissing(ctx)
		return err
	})
	if err != nil {
		return Report{}, err
	}

	r.metrics.AddIndexRepairs("missing", rep.Missing)
	r.metrics.AddIndexRepairs("dangling", rep.Dangling)
	if rep.Missing > 0 || rep.Dangling > 0 {
		slog.Warn("seller index drift repaired", "missing", rep.Missing, "dangling", rep.Dangling)
	}
	return rep, nil
}

// Run reconciles on every tick until ctx is cancelled. Failed passes are
// logged and retried on the next tick.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("seller index reconciler started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("seller index reconciler stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Reconcile(ctx); err != nil && ctx.Err() == nil {
				slog.Error("seller index reconcile failed", "error", err)
			}
		}
	}
}
