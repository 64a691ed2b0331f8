// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"tyremarket/internal/apperr"
	"tyremarket/internal/listing"
)

// IndexReconciler repairs drift between tyres and seller listing sequences.
type IndexReconciler interface {
	Reconcile(ctx context.Context) (listing.Report, error)
}

// Admin groups maintenance handlers that require the admin role.
type Admin struct {
	reconciler IndexReconciler
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(reconciler IndexReconciler) *Admin {
	return &Admin{reconciler: reconciler}
}

// Reconcile runs one index repair pass and returns the repair counts.
func (h *Admin) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		writeError(w, r, apperr.Persistence(err, "reconcile listings"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
