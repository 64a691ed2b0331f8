// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tyre is a product listing. Category, Type, Manufacturer and Seller are
// copies of the referenced records taken when the tyre was written; later
// catalog changes do not reach existing tyres.
type Tyre struct {
	ID               uuid.UUID `json:"_id"`
	Title            string    `json:"title"`
	Category         Ref       `json:"category"`
	Type             Ref       `json:"type"`
	Manufacturer     Ref       `json:"mnf"`
	Seller           SellerRef `json:"seller"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	Rim              int       `json:"rim"`
	Year             int       `json:"year"`
	Price            float64   `json:"price"`
	NumberInStock    int       `json:"numberInStock"`
	HomeInstallation bool      `json:"homeInstallation"`
	ProductImage     string    `json:"productImage"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Title builds the display title of a tyre, e.g.
// "Michelin 205/55/R16 Summer" for a "Summer Tyre" type.
func Title(manufacturer string, width, height, rim int, typeName string) string {
	return fmt.Sprintf("%s %d/%d/R%d %s", manufacturer, width, height, rim, firstWord(typeName))
}

func firstWord(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
