// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSeller   Role = "seller"
	RoleCustomer Role = "customer"
)

// User represents an account that can authenticate against the API.
// Seller accounts are linked to the seller they act for.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize the hash
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	SellerID     *uuid.UUID `json:"seller_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanSell returns true if the user may create and remove listings.
func (r Role) CanSell() bool {
	return r == RoleAdmin || r == RoleSeller
}
