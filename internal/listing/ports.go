// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package listing

import (
	"context"

	"github.com/google/uuid"

	"tyremarket/internal/models"
)

// Categories resolves categories with their embedded manufacturer and
// type sets.
type Categories interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// Sellers reads sellers and maintains their listing sequences.
type Sellers interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	AddListing(ctx context.Context, sellerID, tyreID uuid.UUID) error
	RemoveListing(ctx context.Context, sellerID, tyreID uuid.UUID) (bool, error)
}

// Repairer fixes seller index drift in bulk.
type Repairer interface {
	RepairMissing(ctx context.Context) (int64, error)
	PruneDangling(ctx context.Context) (int64, error)
}

// Tyres persists tyre records.
type Tyres interface {
	Create(ctx context.Context, t *models.Tyre) (*models.Tyre, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tyre, error)
	// FindForUpdate reads a tyre and locks it until the transaction in ctx ends.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Tyre, error)
	List(ctx context.Context) ([]models.Tyre, error)
	Update(ctx context.Context, t *models.Tyre) (*models.Tyre, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Tyre, error)
}

// Images stores product images and their derived files.
type Images interface {
	Store(ctx context.Context, name string, data []byte) (string, error)
	Remove(ctx context.Context, filename string) error
}

// Transactor runs fn inside a transaction carried by the context.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Cache is a read cache for tyres. Implementations never fail a request.
type Cache interface {
	Tyre(ctx context.Context, id uuid.UUID) (*models.Tyre, bool)
	SetTyre(ctx context.Context, t *models.Tyre)
	Tyres(ctx context.Context) ([]models.Tyre, bool)
	SetTyres(ctx context.Context, tyres []models.Tyre)
	Invalidate(ctx context.Context, id uuid.UUID)
}

type noCache struct{}

func (noCache) Tyre(context.Context, uuid.UUID) (*models.Tyre, bool) { return nil, false }
func (noCache) SetTyre(context.Context, *models.Tyre)                {}
func (noCache) Tyres(context.Context) ([]models.Tyre, bool)          { return nil, false }
func (noCache) SetTyres(context.Context, []models.Tyre)              {}
func (noCache) Invalidate(context.Context, uuid.UUID)                {}
