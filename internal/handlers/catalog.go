// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"tyremarket/internal/apperr"
	"tyremarket/internal/models"
)

// CategoryStore persists categories.
type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
}

// ManufacturerStore persists the top-level manufacturer collection.
type ManufacturerStore interface {
	List(ctx context.Context) ([]models.Manufacturer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Manufacturer, error)
	Create(ctx context.Context, name string) (*models.Manufacturer, error)
}

// SellerStore persists sellers.
type SellerStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	Create(ctx context.Context, name string, rating float64) (*models.Seller, error)
}

// Catalog groups the category, manufacturer and seller handlers.
type Catalog struct {
	categories    CategoryStore
	manufacturers ManufacturerStore
	sellers       SellerStore
}

// NewCatalog creates a new Catalog handler group.
func NewCatalog(categories CategoryStore, manufacturers ManufacturerStore, sellers SellerStore) *Catalog {
	return &Catalog{
		categories:    categories,
		manufacturers: manufacturers,
		sellers:       sellers,
	}
}

// ListCategories returns every category with its embedded sets.
func (h *Catalog) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, r, apperr.Persistence(err, "list categories"))
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// GetCategory returns one category.
func (h *Catalog) GetCategory(w http.ResponseWriter, r *http.Request) {
	const notFound = "Unable to find a Category with the given ID"
	id, err := pathID(r, notFound)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, apperr.Persistence(err, "find category"))
		return
	}
	if c == nil {
		writeError(w, r, apperr.NotFound(notFound))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// categoryRequest is the body of a category create. Manufacturers are ids
// from the top-level collection; types are names.
type categoryRequest struct {
	Name          string   `json:"name"`
	Manufacturers []string `json:"manufacturers"`
	Types         []string `json:"types"`
}

// CreateCategory creates a category, copying the named manufacturers from
// the top-level collection into its embedded set.
func (h *Catalog) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormMemory)).Decode(&req); err != nil {
		writeError(w, r, apperr.Validation("Request body must be a JSON object."))
		return
	}
	if msg := validateName(req.Name); msg != "" {
		writeError(w, r, apperr.Validation(msg))
		return
	}

	c := &models.Category{
		Name:          strings.TrimSpace(req.Name),
		Manufacturers: []models.Ref{},
		Types:         []models.Ref{},
	}
	seen := make(map[uuid.UUID]bool, len(req.Manufacturers))
	for _, raw := range req.Manufacturers {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, apperr.Validation(`"manufacturers" must contain valid GUIDs`))
			return
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		m, err := h.manufacturers.FindByID(r.Context(), id)
		if err != nil {
			writeError(w, r, apperr.Persistence(err, "find manufacturer"))
			return
		}
		if m == nil {
			writeError(w, r, apperr.MissingReference("No manufacturer found with the given ID"))
			return
		}
		c.Manufacturers = append(c.Manufacturers, m.Ref())
	}
	for _, name := range req.Types {
		if msg := validateName(name); msg != "" {
			writeError(w, r, apperr.Validation(`"types" must contain non-empty names`))
			return
		}
		c.Types = append(c.Types, models.Ref{Name: strings.TrimSpace(name)})
	}

	created, err := h.categories.Create(r.Context(), c)
	if err != nil {
		writeError(w, r, apperr.Persistence(err, "create category"))
		return
	}
	slog.Info("category created", "category_id", created.ID, "name", created.Name)
	writeJSON(w, http.StatusOK, created)
}

// ListManufacturers returns the top-level manufacturer collection.
func (h *Catalog) ListManufacturers(w http.ResponseWriter, r *http.Request) {
	mnfs, err := h.manufacturers.List(r.Context())
	if err != nil {
		writeError(w, r, apperr.Persistence(err, "list manufacturers"))
		return
	}
	writeJSON(w, http.StatusOK, mnfs)
}

// CreateManufacturer adds a manufacturer to the top-level collection.
func (h *Catalog) CreateManufacturer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormMemory)).Decode(&req); err != nil {
		writeError(w, r, apperr.Validation("Request body must be a JSON object."))
		return
	}
	if msg := validateName(req.Name); msg != "" {
		writeError(w, r, apperr.Validation(msg))
		return
	}

	m, err := h.manufacturers.Create(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		writeError(w, r, apperr.Persistence(err, "create manufacturer"))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GetSeller returns a seller with its listing sequence.
func (h *Catalog) GetSeller(w http.ResponseWriter, r *http.Request) {
	const notFound = "No Seller found with the given ID"
	id, err := pathID(r, notFound)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.sellers.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, apperr.Persistence(err, "find seller"))
		return
	}
	if s == nil {
		writeError(w, r, apperr.NotFound(notFound))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreateSeller creates a seller with an empty listing sequence.
func (h *Catalog) CreateSeller(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string  `json:"name"`
		Rating float64 `json:"rating"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormMemory)).Decode(&req); err != nil {
		writeError(w, r, apperr.Validation("Request body must be a JSON object."))
		return
	}
	if msg := validateName(req.Name); msg != "" {
		writeError(w, r, apperr.Validation(msg))
		return
	}
	if msg := validateRating(req.Rating); msg != "" {
		writeError(w, r, apperr.Validation(msg))
		return
	}

	s, err := h.sellers.Create(r.Context(), strings.TrimSpace(req.Name), req.Rating)
	if err != nil {
		writeError(w, r, apperr.Persistence(err, "create seller"))
		return
	}
	writeJSON(w, http.StatusOK, s)
}
