// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP API of the tyre marketplace:
// authentication, tyre listings, the catalog (categories, manufacturers,
// sellers) and admin maintenance endpoints.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tyremarket/internal/apperr"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps err to a status and a client-safe message. Server-side
// failures are logged with the request path.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: apperr.Message(err)})
}

// pathID parses the {id} URL parameter. A malformed id cannot address any
// record, so it is reported as notFound.
func pathID(r *http.Request, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound(notFound)
	}
	return id, nil
}
