// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"tyremarket/internal/database"
	"tyremarket/internal/models"
)

// CategoryStore manages categories and their embedded manufacturer and
// type sub-records.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, manufacturers, types, created_at, updated_at`

// scanCategory scans a row into a Category struct, decoding the embedded
// JSON arrays.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var (
		c          models.Category
		mnfs, typs []byte
	)
	err := scanner.Scan(&c.ID, &c.Name, &mnfs, &typs, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(mnfs, &c.Manufacturers); err != nil {
		return nil, fmt.Errorf("decode manufacturers: %w", err)
	}
	if err := json.Unmarshal(typs, &c.Types); err != nil {
		return nil, fmt.Errorf("decode types: %w", err)
	}
	return &c, nil
}

// List returns all categories ordered by name.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := database.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := database.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Create inserts a new category with its sub-records and returns it.
// Type sub-records without an id are assigned one.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	for i := range c.Types {
		if c.Types[i].ID == uuid.Nil {
			c.Types[i].ID = uuid.New()
		}
	}
	mnfs, typs, err := encodeRefs(c)
	if err != nil {
		return nil, err
	}

	row := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO categories (name, manufacturers, types)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		c.Name, mnfs, typs,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update replaces a category's name and sub-record sets. Existing tyres
// keep the snapshots they were written with.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	mnfs, typs, err := encodeRefs(c)
	if err != nil {
		return err
	}
	_, err = database.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE categories SET
			name = $1, manufacturers = $2, types = $3, updated_at = NOW()
		WHERE id = $4
	`, c.Name, mnfs, typs, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category by ID.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// encodeRefs serializes the embedded sub-records as JSON text. Nil slices
// are stored as empty arrays.
func encodeRefs(c *models.Category) (string, string, error) {
	mnfs := c.Manufacturers
	if mnfs == nil {
		mnfs = []models.Ref{}
	}
	typs := c.Types
	if typs == nil {
		typs = []models.Ref{}
	}
	m, err := json.Marshal(mnfs)
	if err != nil {
		return "", "", fmt.Errorf("encode manufacturers: %w", err)
	}
	t, err := json.Marshal(typs)
	if err != nil {
		return "", "", fmt.Errorf("encode types: %w", err)
	}
	return string(m), string(t), nil
}
