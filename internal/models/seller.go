// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Seller is a merchant offering tyres. Listings holds the ids of the
// seller's tyres in the order they were registered.
type Seller struct {
	ID        uuid.UUID   `json:"_id"`
	Name      string      `json:"name"`
	Rating    float64     `json:"rating"`
	Listings  []uuid.UUID `json:"listings"`
	CreatedAt time.Time   `json:"created_at"`
}

// SellerRef is the seller snapshot stored on a tyre.
type SellerRef struct {
	ID     uuid.UUID `json:"_id"`
	Name   string    `json:"name"`
	Rating float64   `json:"rating"`
}

// Snapshot returns the denormalized copy of the seller stored on tyres.
func (s *Seller) Snapshot() SellerRef {
	return SellerRef{ID: s.ID, Name: s.Name, Rating: s.Rating}
}

// HasListing reports whether the tyre id is in the seller's listings.
func (s *Seller) HasListing(tyreID uuid.UUID) bool {
	for _, id := range s.Listings {
		if id == tyreID {
			return true
		}
	}
	return false
}
