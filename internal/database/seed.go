// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// seedManufacturers and seedTypes populate the demo "Car Tyres" category.
var (
	seedManufacturers = []string{"Michelin", "Goodyear", "Bridgestone", "Continental"}
	seedTypes         = []string{"Summer Tyre", "Winter Tyre", "All Season Tyre"}
)

// seedRef mirrors the JSON shape of embedded category sub-records.
type seedRef struct {
	ID   uuid.UUID `json:"_id"`
	Name string    `json:"name"`
}

// Seed populates the database with initial development data: an admin
// account, a demo seller with its own login, the manufacturer catalog and
// one category embedding them. It is a no-op if any user exists.
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var mnfs []seedRef
	for _, name := range seedManufacturers {
		var id uuid.UUID
		err := tx.QueryRow(`
			INSERT INTO manufacturers (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, name).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed manufacturer %s: %w", name, err)
		}
		mnfs = append(mnfs, seedRef{ID: id, Name: name})
	}

	var types []seedRef
	for _, name := range seedTypes {
		types = append(types, seedRef{ID: uuid.New(), Name: name})
	}

	mnfJSON, _ := json.Marshal(mnfs)
	typesJSON, _ := json.Marshal(types)
	if _, err := tx.Exec(`
		INSERT INTO categories (name, manufacturers, types) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`, "Car Tyres", string(mnfJSON), string(typesJSON)); err != nil {
		return fmt.Errorf("seed category: %w", err)
	}

	var sellerID uuid.UUID
	if err := tx.QueryRow(`
		INSERT INTO sellers (name, rating) VALUES ($1, $2) RETURNING id
	`, "Demo Tyres", 4.5).Scan(&sellerID); err != nil {
		return fmt.Errorf("seed seller: %w", err)
	}

	users := []struct {
		email, password, name, role string
		sellerID                    *uuid.UUID
	}{
		{"admin@tyremarket.local", "admin1234", "Admin", "admin", &sellerID},
		{"seller@tyremarket.local", "seller1234", "Demo Seller", "seller", &sellerID},
	}
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed bcrypt: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO users (email, password_hash, name, role, seller_id)
			VALUES ($1, $2, $3, $4, $5)
		`, u.email, string(hash), u.name, u.role, u.sellerID); err != nil {
			return fmt.Errorf("seed insert user %s: %w", u.email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with development data",
		"admin", "admin@tyremarket.local",
		"seller", "seller@tyremarket.local",
		"seller_id", sellerID,
	)

	return nil
}
