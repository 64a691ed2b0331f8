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

// TyreStore handles all tyre-related database operations.
type TyreStore struct {
	db *sql.DB
}

// NewTyreStore creates a new TyreStore with the given database connection.
func NewTyreStore(db *sql.DB) *TyreStore {
	return &TyreStore{db: db}
}

// tyreColumns lists the columns selected in tyre queries.
const tyreColumns = `id, title, category_id, category_name, type_id, type_name,
	manufacturer_id, manufacturer_name, seller_id, seller_name, seller_rating,
	width, height, rim, year, price, number_in_stock, home_installation,
	product_image, created_at, updated_at`

// scanTyre scans a tyre row from the result set.
func scanTyre(scanner interface{ Scan(...any) error }) (*models.Tyre, error) {
	var t models.Tyre
	err := scanner.Scan(
		&t.ID, &t.Title, &t.Category.ID, &t.Category.Name, &t.Type.ID, &t.Type.Name,
		&t.Manufacturer.ID, &t.Manufacturer.Name, &t.Seller.ID, &t.Seller.Name, &t.Seller.Rating,
		&t.Width, &t.Height, &t.Rim, &t.Year, &t.Price, &t.NumberInStock, &t.HomeInstallation,
		&t.ProductImage, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new tyre and returns it with the generated ID.
func (s *TyreStore) Create(ctx context.Context, t *models.Tyre) (*models.Tyre, error) {
	row := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO tyres (title, category_id, category_name, type_id, type_name,
			manufacturer_id, manufacturer_name, seller_id, seller_name, seller_rating,
			width, height, rim, year, price, number_in_stock, home_installation, product_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+tyreColumns,
		t.Title, t.Category.ID, t.Category.Name, t.Type.ID, t.Type.Name,
		t.Manufacturer.ID, t.Manufacturer.Name, t.Seller.ID, t.Seller.Name, t.Seller.Rating,
		t.Width, t.Height, t.Rim, t.Year, t.Price, t.NumberInStock, t.HomeInstallation, t.ProductImage,
	)
	created, err := scanTyre(row)
	if err != nil {
		return nil, fmt.Errorf("create tyre: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single tyre by its UUID. Returns nil if not found.
func (s *TyreStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tyre, error) {
	return s.find(ctx, `SELECT `+tyreColumns+` FROM tyres WHERE id = $1`, id)
}

// FindForUpdate is FindByID with the row locked until the transaction in
// ctx ends. Outside a transaction the lock is released immediately.
func (s *TyreStore) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Tyre, error) {
	return s.find(ctx, `SELECT `+tyreColumns+` FROM tyres WHERE id = $1 FOR UPDATE`, id)
}

func (s *TyreStore) find(ctx context.Context, query string, id uuid.UUID) (*models.Tyre, error) {
	t, err := scanTyre(database.Conn(ctx, s.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tyre by id: %w", err)
	}
	return t, nil
}

// List returns every tyre ordered by title.
func (s *TyreStore) List(ctx context.Context) ([]models.Tyre, error) {
	rows, err := database.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+tyreColumns+` FROM tyres ORDER BY title ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tyres: %w", err)
	}
	defer rows.Close()

	items := []models.Tyre{}
	for rows.Next() {
		t, err := scanTyre(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tyre: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// Update replaces the listing fields of an existing tyre. The product
// image and creation time are kept. Returns nil if the tyre does not exist.
func (s *TyreStore) Update(ctx context.Context, t *models.Tyre) (*models.Tyre, error) {
	row := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		UPDATE tyres SET
			title = $1, category_id = $2, category_name = $3, type_id = $4, type_name = $5,
			manufacturer_id = $6, manufacturer_name = $7,
			seller_id = $8, seller_name = $9, seller_rating = $10,
			width = $11, height = $12, rim = $13, year = $14, price = $15,
			number_in_stock = $16, home_installation = $17, updated_at = NOW()
		WHERE id = $18
		RETURNING `+tyreColumns,
		t.Title, t.Category.ID, t.Category.Name, t.Type.ID, t.Type.Name,
		t.Manufacturer.ID, t.Manufacturer.Name,
		t.Seller.ID, t.Seller.Name, t.Seller.Rating,
		t.Width, t.Height, t.Rim, t.Year, t.Price,
		t.NumberInStock, t.HomeInstallation, t.ID,
	)
	updated, err := scanTyre(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update tyre: %w", err)
	}
	return updated, nil
}

// Delete removes a tyre record and returns it so the caller can clean
// up the product image. Returns nil if the tyre does not exist.
func (s *TyreStore) Delete(ctx context.Context, id uuid.UUID) (*models.Tyre, error) {
	row := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		DELETE FROM tyres WHERE id = $1
		RETURNING `+tyreColumns, id)
	t, err := scanTyre(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete tyre: %w", err)
	}
	return t, nil
}
