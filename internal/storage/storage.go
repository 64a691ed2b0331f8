// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage persists product images. Files go either to an
// S3-compatible bucket (path-style, for CEPH/Hetzner) or to a local
// directory served under /uploads/. Images stores each upload under a
// generated name together with a JPEG thumbnail.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tyremarket/internal/apperr"
	"tyremarket/internal/imaging"
)

// Backend is an object store addressed by flat keys.
type Backend interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Images stores product images and their thumbnails on a Backend.
type Images struct {
	backend Backend
}

// NewImages returns an image store on backend.
func NewImages(backend Backend) *Images {
	return &Images{backend: backend}
}

// Store sniffs data, saves it under a generated filename with the
// matching extension and saves a thumbnail next to it. The returned
// filename is what tyre records keep. Thumbnail failures are logged and
// do not fail the upload.
func (s *Images) Store(ctx context.Context, name string, data []byte) (string, error) {
	contentType, ext, err := imaging.Detect(data)
	if err != nil {
		return "", apperr.Validation(`"productImage" must be a JPEG, PNG or WebP image`)
	}

	filename := uuid.NewString() + ext
	if err := s.backend.Put(ctx, filename, contentType, data); err != nil {
		return "", fmt.Errorf("store image %q: %w", name, err)
	}

	thumb, err := imaging.Thumbnail(data, imaging.ThumbMaxWidth)
	if err != nil {
		slog.Warn("thumbnail generation failed", "error", err, "filename", filename)
	} else if thumb != nil {
		if err := s.backend.Put(ctx, imaging.ThumbName(filename), "image/jpeg", thumb); err != nil {
			slog.Warn("thumbnail upload failed", "error", err, "filename", filename)
		}
	}

	slog.Debug("image stored", "filename", filename, "original_name", name, "size", len(data))
	return filename, nil
}

// Remove deletes the image and its thumbnail.
func (s *Images) Remove(ctx context.Context, filename string) error {
	return errors.Join(
		s.backend.Delete(ctx, filename),
		s.backend.Delete(ctx, imaging.ThumbName(filename)),
	)
}

// URL returns where filename is served from.
func (s *Images) URL(filename string) string {
	return s.backend.URL(filename)
}
