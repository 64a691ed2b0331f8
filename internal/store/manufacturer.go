// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"tyremarket/internal/database"
	"tyremarket/internal/models"
)

// ManufacturerStore manages the top-level manufacturer collection.
type ManufacturerStore struct {
	db *sql.DB
}

// NewManufacturerStore returns a new ManufacturerStore.
func NewManufacturerStore(db *sql.DB) *ManufacturerStore {
	return &ManufacturerStore{db: db}
}

// List returns all manufacturers ordered by name.
func (s *ManufacturerStore) List(ctx context.Context) ([]models.Manufacturer, error) {
	rows, err := database.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT id, name, created_at FROM manufacturers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list manufacturers: %w", err)
	}
	defer rows.Close()

	var items []models.Manufacturer
	for rows.Next() {
		var m models.Manufacturer
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan manufacturer: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// FindByID retrieves a manufacturer by ID. Returns nil if not found.
func (s *ManufacturerStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Manufacturer, error) {
	var m models.Manufacturer
	err := database.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, name, created_at FROM manufacturers WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find manufacturer by id: %w", err)
	}
	return &m, nil
}

// Create inserts a new manufacturer.
func (s *ManufacturerStore) Create(ctx context.Context, name string) (*models.Manufacturer, error) {
	var m models.Manufacturer
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO manufacturers (name) VALUES ($1)
		RETURNING id, name, created_at
	`, name).Scan(&m.ID, &m.Name, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create manufacturer: %w", err)
	}
	return &m, nil
}
