// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Ref is an {id, name} pair. It is used both for the manufacturer and type
// sub-records embedded in a category and for the snapshots copied onto a
// tyre.
type Ref struct {
	ID   uuid.UUID `json:"_id"`
	Name string    `json:"name"`
}

// Category groups tyres and carries the ordered manufacturer and type
// sub-records a tyre listed under it may reference.
type Category struct {
	ID            uuid.UUID `json:"_id"`
	Name          string    `json:"name"`
	Manufacturers []Ref     `json:"manufacturers"`
	Types         []Ref     `json:"types"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Manufacturer returns the embedded manufacturer with the given id.
func (c *Category) Manufacturer(id uuid.UUID) (Ref, bool) {
	return findRef(c.Manufacturers, id)
}

// Type returns the embedded tyre type with the given id.
func (c *Category) Type(id uuid.UUID) (Ref, bool) {
	return findRef(c.Types, id)
}

func findRef(refs []Ref, id uuid.UUID) (Ref, bool) {
	for _, r := range refs {
		if r.ID == id {
			return r, true
		}
	}
	return Ref{}, false
}

// Manufacturer is the top-level manufacturer record. Categories embed copies
// of manufacturers that keep the same id.
type Manufacturer struct {
	ID        uuid.UUID `json:"_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Ref returns the manufacturer as an embeddable sub-record.
func (m *Manufacturer) Ref() Ref {
	return Ref{ID: m.ID, Name: m.Name}
}
