// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"tyremarket/internal/apperr"
	"tyremarket/internal/imaging"
	"tyremarket/internal/listing"
	"tyremarket/internal/middleware"
	"tyremarket/internal/models"
)

const (
	// imageField is the multipart field carrying the product image.
	imageField = "productImage"

	// maxCreateBody bounds a create request: the image plus room for the
	// other form fields.
	maxCreateBody = imaging.MaxUploadSize + maxFormMemory

	// ImageCleanupHeader is set to "failed" on a delete whose record was
	// removed but whose image could not be.
	ImageCleanupHeader = "X-Image-Cleanup"

	tyreNotFound = "No Tyre found with the given ID"
)

// TyreService is the listing workflow behind the tyre endpoints.
type TyreService interface {
	Create(ctx context.Context, in listing.Input, img *listing.Upload, caller listing.Caller) (*models.Tyre, error)
	List(ctx context.Context) ([]models.Tyre, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Tyre, error)
	Update(ctx context.Context, id uuid.UUID, in listing.Input, caller listing.Caller) (*models.Tyre, error)
	Delete(ctx context.Context, id uuid.UUID, caller listing.Caller) (*models.Tyre, error)
}

// Tyres groups the tyre listing handlers.
type Tyres struct {
	svc TyreService
}

// NewTyres creates a new Tyres handler group.
func NewTyres(svc TyreService) *Tyres {
	return &Tyres{svc: svc}
}

// List returns every tyre ordered by title.
func (h *Tyres) List(w http.ResponseWriter, r *http.Request) {
	tyres, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tyres)
}

// callerFrom builds the listing caller from the request identity. Without
// one the caller has no seller account and no admin rights.
func callerFrom(r *http.Request) listing.Caller {
	ident := middleware.IdentityFromCtx(r.Context())
	if ident == nil {
		return listing.Caller{}
	}
	return listing.Caller{SellerID: ident.SellerID, Admin: ident.IsAdmin()}
}

// Get returns one tyre.
func (h *Tyres) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, tyreNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create handles a multipart listing with the product image in the
// productImage field.
func (h *Tyres) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCreateBody)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apperr.Validation(`"productImage" must be at most 10 MB`))
			return
		}
		writeError(w, r, apperr.Validation("Request must be a multipart form."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	in, err := tyreInput(formFields(r.MultipartForm.Value))
	if err != nil {
		writeError(w, r, err)
		return
	}

	upload, err := readUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.svc.Create(r.Context(), in, upload, callerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// readUpload returns the product image, or nil when the field is absent.
// Reading stops one byte past the size limit so oversize files are still
// detected by validation.
func readUpload(r *http.Request) (*listing.Upload, error) {
	file, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("Invalid product image upload.")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, imaging.MaxUploadSize+1))
	if err != nil {
		return nil, apperr.Validation("Invalid product image upload.")
	}
	return &listing.Upload{Name: header.Filename, Data: data}, nil
}

// Update replaces a tyre's fields from a JSON or form body. The image is
// left untouched. Sellers may only update their own listings.
func (h *Tyres) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, tyreNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormMemory)
	f, err := bodyFields(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := tyreInput(f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.svc.Update(r.Context(), id, in, callerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete removes a tyre owned by the caller's seller account, or any tyre
// for admins. If only the image cleanup failed, the deleted tyre is still
// returned and the response carries the X-Image-Cleanup header.
func (h *Tyres) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, tyreNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.svc.Delete(r.Context(), id, callerFrom(r))
	if err != nil {
		if t != nil && errors.Is(err, listing.ErrImageCleanup) {
			w.Header().Set(ImageCleanupHeader, "failed")
			writeJSON(w, http.StatusOK, t)
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
