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

// SellerStore manages sellers and their listing sequences.
type SellerStore struct {
	db *sql.DB
}

// NewSellerStore returns a new SellerStore.
func NewSellerStore(db *sql.DB) *SellerStore {
	return &SellerStore{db: db}
}

// FindByID retrieves a seller with its listing sequence. Returns nil if
// not found.
func (s *SellerStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	seller, err := s.find(ctx, `SELECT id, name, rating, created_at FROM sellers WHERE id = $1`, id)
	if err != nil || seller == nil {
		return seller, err
	}
	seller.Listings, err = s.Listings(ctx, id)
	if err != nil {
		return nil, err
	}
	return seller, nil
}

// FindForUpdate retrieves a seller and locks its row until the surrounding
// transaction ends, serializing listing changes for that seller. Listings
// are not loaded. Returns nil if not found.
func (s *SellerStore) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	return s.find(ctx, `SELECT id, name, rating, created_at FROM sellers WHERE id = $1 FOR UPDATE`, id)
}

func (s *SellerStore) find(ctx context.Context, query string, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&seller.ID, &seller.Name, &seller.Rating, &seller.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find seller by id: %w", err)
	}
	return &seller, nil
}

// Create inserts a new seller.
func (s *SellerStore) Create(ctx context.Context, name string, rating float64) (*models.Seller, error) {
	var seller models.Seller
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO sellers (name, rating) VALUES ($1, $2)
		RETURNING id, name, rating, created_at
	`, name, rating).Scan(&seller.ID, &seller.Name, &seller.Rating, &seller.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create seller: %w", err)
	}
	seller.Listings = []uuid.UUID{}
	return &seller, nil
}

// Listings returns the seller's tyre ids in registration order.
func (s *SellerStore) Listings(ctx context.Context, sellerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := database.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT tyre_id FROM seller_listings WHERE seller_id = $1 ORDER BY position
	`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller listings: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seller listing: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddListing appends a tyre to the seller's listing sequence. Adding a
// tyre that is already listed is a no-op.
func (s *SellerStore) AddListing(ctx context.Context, sellerID, tyreID uuid.UUID) error {
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO seller_listings (seller_id, tyre_id) VALUES ($1, $2)
		ON CONFLICT (seller_id, tyre_id) DO NOTHING
	`, sellerID, tyreID)
	if err != nil {
		return fmt.Errorf("add seller listing: %w", err)
	}
	return nil
}

// RemoveListing removes the entry whose tyre id matches from the seller's
// sequence. It reports whether an entry was removed.
func (s *SellerStore) RemoveListing(ctx context.Context, sellerID, tyreID uuid.UUID) (bool, error) {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		DELETE FROM seller_listings WHERE seller_id = $1 AND tyre_id = $2
	`, sellerID, tyreID)
	if err != nil {
		return false, fmt.Errorf("remove seller listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove seller listing: %w", err)
	}
	return n > 0, nil
}

// RepairMissing adds index entries for tyres that are absent from their
// seller's listing sequence. Tyres whose seller no longer exists are
// skipped. Returns the number of entries added.
func (s *SellerStore) RepairMissing(ctx context.Context) (int64, error) {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO seller_listings (seller_id, tyre_id)
		SELECT t.seller_id, t.id
		FROM tyres t
		JOIN sellers s ON s.id = t.seller_id
		WHERE NOT EXISTS (
			SELECT 1 FROM seller_listings l
			WHERE l.seller_id = t.seller_id AND l.tyre_id = t.id
		)
		ORDER BY t.created_at
		ON CONFLICT (seller_id, tyre_id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("repair missing listings: %w", err)
	}
	return res.RowsAffected()
}

// PruneDangling removes index entries whose tyre no longer exists or now
// belongs to another seller. Returns the number of entries removed.
func (s *SellerStore) PruneDangling(ctx context.Context) (int64, error) {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		DELETE FROM seller_listings l
		WHERE NOT EXISTS (
			SELECT 1 FROM tyres t
			WHERE t.id = l.tyre_id AND t.seller_id = l.seller_id
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("prune dangling listings: %w", err)
	}
	return res.RowsAffected()
}
