// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package listing implements the tyre listing workflow. Creating or
// updating a tyre resolves its manufacturer and type from the category's
// embedded sets, copies category, manufacturer, type and seller snapshots
// onto the record, and keeps the owning seller's listing sequence in step
// inside the same transaction as the tyre write.
package listing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"tyremarket/internal/apperr"
	"tyremarket/internal/metrics"
	"tyremarket/internal/models"
)

// Deps are the collaborators of a Service. Cache and Metrics are optional.
type Deps struct {
	Categories Categories
	Sellers    Sellers
	Tyres      Tyres
	Images     Images
	Tx         Transactor
	Cache      Cache
	Metrics    *metrics.Metrics
}

// Service creates, reads, updates and deletes tyre listings.
type Service struct {
	categories Categories
	sellers    Sellers
	tyres      Tyres
	images     Images
	tx         Transactor
	index      *IndexSync
	cache      Cache
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewService wires a Service.
func NewService(d Deps) *Service {
	cache := d.Cache
	if cache == nil {
		cache = noCache{}
	}
	return &Service{
		categories: d.Categories,
		sellers:    d.Sellers,
		tyres:      d.Tyres,
		images:     d.Images,
		tx:         d.Tx,
		index:      NewIndexSync(d.Sellers, d.Tx),
		cache:      cache,
		metrics:    d.Metrics,
		now:        time.Now,
	}
}

// resolved holds the catalog records a tyre write refers to.
type resolved struct {
	category     models.Ref
	manufacturer models.Ref
	typ          models.Ref
}

// resolve looks up the category and finds the manufacturer and type inside
// its embedded sets. The seller is checked separately under lock.
func (s *Service) resolve(ctx context.Context, in *Input) (*resolved, error) {
	category, err := s.categories.FindByID(ctx, in.Category)
	if err != nil {
		return nil, apperr.Persistence(err, "find category")
	}
	if category == nil {
		return nil, apperr.MissingReference("Unable to find a Category with the given ID")
	}

	mnf, ok := category.Manufacturer(in.Manufacturer)
	if !ok {
		return nil, apperr.MissingReference("No manufacturer found with the given ID in this category")
	}
	typ, ok := category.Type(in.Type)
	if !ok {
		return nil, apperr.MissingReference("No type found with the given ID in this category")
	}

	return &resolved{
		category:     models.Ref{ID: category.ID, Name: category.Name},
		manufacturer: mnf,
		typ:          typ,
	}, nil
}

func (s *Service) checkSeller(ctx context.Context, id uuid.UUID) error {
	seller, err := s.sellers.FindByID(ctx, id)
	if err != nil {
		return apperr.Persistence(err, "find seller")
	}
	if seller == nil {
		return errSellerMissing
	}
	return nil
}

var errSellerMissing = apperr.MissingReference("No Seller found with the given SellerID")

// lockSeller locks the seller row for the current transaction.
func (s *Service) lockSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	seller, err := s.sellers.FindForUpdate(ctx, id)
	if err != nil {
		return nil, apperr.Persistence(err, "lock seller")
	}
	if seller == nil {
		return nil, errSellerMissing
	}
	return seller, nil
}

func fill(t *models.Tyre, in *Input, r *resolved, seller *models.Seller) {
	t.Title = models.Title(r.manufacturer.Name, in.Width, in.Height, in.Rim, r.typ.Name)
	t.Category = r.category
	t.Manufacturer = r.manufacturer
	t.Type = r.typ
	t.Seller = seller.Snapshot()
	t.Width = in.Width
	t.Height = in.Height
	t.Rim = in.Rim
	t.Year = in.Year
	t.Price = in.Price
	t.NumberInStock = in.NumberInStock
	t.HomeInstallation = in.HomeInstallation
}

// Create validates the input, resolves its references, stores the image
// and persists the tyre together with its seller index entry. A caller
// without admin rights may only list under their own seller account. If
// the transaction fails the stored image is removed again.
func (s *Service) Create(ctx context.Context, in Input, img *Upload, caller Caller) (*models.Tyre, error) {
	if err := in.Validate(s.now()); err != nil {
		return nil, err
	}
	if !caller.ActsFor(in.Seller) {
		return nil, errForeignSeller
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	refs, err := s.resolve(ctx, &in)
	if err != nil {
		return nil, err
	}
	if err := s.checkSeller(ctx, in.Seller); err != nil {
		return nil, err
	}

	filename, err := s.images.Store(ctx, img.Name, img.Data)
	if err != nil {
		if apperr.CodeOf(err) != apperr.CodePersistence {
			return nil, err
		}
		return nil, apperr.Persistence(err, "store image")
	}

	var created *models.Tyre
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		seller, err := s.lockSeller(ctx, in.Seller)
		if err != nil {
			return err
		}

		t := &models.Tyre{ProductImage: filename}
		fill(t, &in, refs, seller)

		created, err = s.tyres.Create(ctx, t)
		if err != nil {
			return apperr.Persistence(err, "create tyre")
		}
		if err := s.index.Register(ctx, seller.ID, created.ID); err != nil {
			return apperr.Persistence(err, "register listing")
		}
		return nil
	})
	if err != nil {
		if rmErr := s.images.Remove(ctx, filename); rmErr != nil {
			s.metrics.IncrementImageCleanupFailures()
			slog.Warn("orphaned image cleanup failed", "filename", filename, "error", rmErr)
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, created.ID)
	s.metrics.IncrementTyresCreated()
	slog.Info("tyre created", "tyre_id", created.ID, "seller_id", created.Seller.ID, "title", created.Title)
	return created, nil
}

// List returns every tyre ordered by title.
func (s *Service) List(ctx context.Context) ([]models.Tyre, error) {
	if tyres, ok := s.cache.Tyres(ctx); ok {
		return tyres, nil
	}
	tyres, err := s.tyres.List(ctx)
	if err != nil {
		return nil, apperr.Persistence(err, "list tyres")
	}
	s.cache.SetTyres(ctx, tyres)
	return tyres, nil
}

// Get returns one tyre.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Tyre, error) {
	if t, ok := s.cache.Tyre(ctx, id); ok {
		return t, nil
	}
	t, err := s.tyres.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Persistence(err, "find tyre")
	}
	if t == nil {
		return nil, errTyreMissing
	}
	s.cache.SetTyre(ctx, t)
	return t, nil
}

var errTyreMissing = apperr.NotFound("No Tyre found with the given ID")

// Update replaces a tyre's fields. The title, type, manufacturer and
// seller snapshots are recomputed the same way Create computes them. When
// the seller changes the index entry moves to the new seller in the same
// transaction. A caller without admin rights must own the tyre and may
// not hand it to another seller.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, caller Caller) (*models.Tyre, error) {
	if err := in.Validate(s.now()); err != nil {
		return nil, err
	}

	existing, err := s.tyres.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Persistence(err, "find tyre")
	}
	if existing == nil {
		return nil, errTyreMissing
	}
	if !caller.ActsFor(existing.Seller.ID) {
		return nil, errNotOwner("update")
	}
	if !caller.ActsFor(in.Seller) {
		return nil, errForeignSeller
	}

	refs, err := s.resolve(ctx, &in)
	if err != nil {
		return nil, err
	}
	if err := s.checkSeller(ctx, in.Seller); err != nil {
		return nil, err
	}

	var updated *models.Tyre
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		// The tyre row is locked before any seller row, as in Delete.
		current, err := s.tyres.FindForUpdate(ctx, id)
		if err != nil {
			return apperr.Persistence(err, "lock tyre")
		}
		if current == nil {
			return errTyreMissing
		}
		if !caller.ActsFor(current.Seller.ID) {
			return errNotOwner("update")
		}
		oldSeller := current.Seller.ID

		locked, err := s.lockSellers(ctx, oldSeller, in.Seller)
		if err != nil {
			return err
		}
		seller := locked[in.Seller]
		if seller == nil {
			return errSellerMissing
		}

		t := *current
		fill(&t, &in, refs, seller)

		updated, err = s.tyres.Update(ctx, &t)
		if err != nil {
			return apperr.Persistence(err, "update tyre")
		}
		if updated == nil {
			return errTyreMissing
		}

		if oldSeller != seller.ID {
			if err := s.index.Unregister(ctx, oldSeller, id); err != nil {
				return apperr.Persistence(err, "unregister listing")
			}
		}
		if err := s.index.Register(ctx, seller.ID, id); err != nil {
			return apperr.Persistence(err, "register listing")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	s.metrics.IncrementTyresUpdated()
	slog.Info("tyre updated", "tyre_id", id, "seller_id", updated.Seller.ID)
	return updated, nil
}

// lockSellers locks every distinct seller id in ascending order so two
// concurrent cross-seller updates cannot deadlock. Sellers that do not
// exist are absent from the result.
func (s *Service) lockSellers(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*models.Seller, error) {
	distinct := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	sort.Slice(distinct, func(i, j int) bool {
		return bytes.Compare(distinct[i][:], distinct[j][:]) < 0
	})

	locked := make(map[uuid.UUID]*models.Seller, len(distinct))
	for _, id := range distinct {
		seller, err := s.sellers.FindForUpdate(ctx, id)
		if err != nil {
			return nil, apperr.Persistence(err, "lock seller")
		}
		if seller != nil {
			locked[id] = seller
		}
	}
	return locked, nil
}

// ErrImageCleanup marks a delete whose record removal succeeded but whose
// image could not be removed.
var ErrImageCleanup = errors.New("image cleanup failed")

// Delete removes a tyre on behalf of caller. The caller's seller account
// must exist, and a caller without admin rights may only delete tyres
// listed under their own seller. The record and its index entry are
// removed in one transaction; the image and thumbnail are removed
// afterwards. If that fails the deleted tyre is still returned, together
// with a persistence error wrapping ErrImageCleanup.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, caller Caller) (*models.Tyre, error) {
	if caller.SellerID == nil {
		return nil, errAccessDenied
	}
	seller, err := s.sellers.FindByID(ctx, *caller.SellerID)
	if err != nil {
		return nil, apperr.Persistence(err, "find seller")
	}
	if seller == nil {
		return nil, errAccessDenied
	}

	var deleted *models.Tyre
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		t, err := s.tyres.FindForUpdate(ctx, id)
		if err != nil {
			return apperr.Persistence(err, "lock tyre")
		}
		if t == nil {
			return errTyreMissing
		}
		if !caller.ActsFor(t.Seller.ID) {
			return errNotOwner("delete")
		}

		deleted, err = s.tyres.Delete(ctx, id)
		if err != nil {
			return apperr.Persistence(err, "delete tyre")
		}
		if deleted == nil {
			return errTyreMissing
		}
		if err := s.index.Unregister(ctx, deleted.Seller.ID, deleted.ID); err != nil {
			return apperr.Persistence(err, "unregister listing")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	s.metrics.IncrementTyresDeleted()
	slog.Info("tyre deleted", "tyre_id", id, "seller_id", deleted.Seller.ID)

	if deleted.ProductImage != "" {
		if err := s.images.Remove(ctx, deleted.ProductImage); err != nil {
			s.metrics.IncrementImageCleanupFailures()
			slog.Error("product image removal failed", "tyre_id", id, "filename", deleted.ProductImage, "error", err)
			return deleted, apperr.Persistence(errors.Join(ErrImageCleanup, err), "remove product image")
		}
	}
	return deleted, nil
}

var (
	errAccessDenied  = apperr.Forbidden("Access Denied, Unauthorized account")
	errForeignSeller = apperr.Forbidden("Access denied. You can only list tyres under your own seller account.")
)

func errNotOwner(action string) error {
	return apperr.Forbidden("Access denied. You can only " + action + " your own listings.")
}
