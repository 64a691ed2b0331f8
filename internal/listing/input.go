// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package listing

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tyremarket/internal/apperr"
	"tyremarket/internal/imaging"
)

// Field bounds for tyre listings.
const (
	MinWidth         = 100
	MaxWidth         = 400
	MinHeight        = 10
	MaxHeight        = 100
	MinRim           = 10
	MaxRim           = 30
	MinYear          = 1990
	MaxPrice         = 1_000_000
	PriceDecimals    = 2
	MaxNumberInStock = 10_000
)

// Input is the field set of a tyre create or update.
type Input struct {
	Category         uuid.UUID
	Manufacturer     uuid.UUID
	Type             uuid.UUID
	Seller           uuid.UUID
	Width            int
	Height           int
	Rim              int
	Year             int
	Price            float64
	NumberInStock    int
	HomeInstallation bool
}

// Validate checks the input's shape and returns the first violation as a
// validation error. It does not touch any store.
func (in *Input) Validate(now time.Time) error {
	refs := []struct {
		name string
		id   uuid.UUID
	}{
		{"category", in.Category},
		{"mnf", in.Manufacturer},
		{"type", in.Type},
		{"seller", in.Seller},
	}
	for _, r := range refs {
		if r.id == uuid.Nil {
			return apperr.Validation(fmt.Sprintf("%q is required", r.name))
		}
	}

	ints := []struct {
		name   string
		v      int
		lo, hi int
	}{
		{"width", in.Width, MinWidth, MaxWidth},
		{"height", in.Height, MinHeight, MaxHeight},
		{"rim", in.Rim, MinRim, MaxRim},
		{"year", in.Year, MinYear, now.Year() + 1},
	}
	for _, f := range ints {
		if err := checkRange(f.name, float64(f.v), float64(f.lo), float64(f.hi)); err != nil {
			return err
		}
	}

	if err := checkRange("price", in.Price, 0, MaxPrice); err != nil {
		return err
	}
	// Prices are stored as NUMERIC(12, 2).
	if scaled := in.Price * math.Pow10(PriceDecimals); math.Abs(scaled-math.Round(scaled)) > 1e-6 {
		return apperr.Validation(fmt.Sprintf("%q must have no more than %d decimal places", "price", PriceDecimals))
	}
	return checkRange("numberInStock", float64(in.NumberInStock), 0, MaxNumberInStock)
}

func checkRange(name string, v, lo, hi float64) error {
	if v < lo {
		return apperr.Validation(fmt.Sprintf("%q must be greater than or equal to %s", name, formatNumber(lo)))
	}
	if v > hi {
		return apperr.Validation(fmt.Sprintf("%q must be less than or equal to %s", name, formatNumber(hi)))
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Upload is an uploaded product image.
type Upload struct {
	Name string
	Data []byte
}

// Validate checks that the upload is present, within size and of an
// accepted image type.
func (u *Upload) Validate() error {
	if u == nil || len(u.Data) == 0 {
		return apperr.Validation(`"productImage" is required`)
	}
	if len(u.Data) > imaging.MaxUploadSize {
		return apperr.Validation(`"productImage" must be at most 10 MB`)
	}
	if _, _, err := imaging.Detect(u.Data); err != nil {
		return apperr.Validation(`"productImage" must be a JPEG, PNG or WebP image`)
	}
	return nil
}

// Caller identifies who performs a write.
type Caller struct {
	SellerID *uuid.UUID
	Admin    bool
}

// ActsFor reports whether the caller may write listings owned by
// sellerID. Admins act for every seller.
func (c Caller) ActsFor(sellerID uuid.UUID) bool {
	if c.Admin {
		return true
	}
	return c.SellerID != nil && *c.SellerID == sellerID
}
