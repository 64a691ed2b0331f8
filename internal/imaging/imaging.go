// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging inspects uploaded product images and renders the JPEG
// thumbnails stored next to them. Only JPEG, PNG and WebP are accepted.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"path"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxUploadSize is the largest accepted product image.
	MaxUploadSize = 10 << 20

	// ThumbMaxWidth is the width thumbnails are scaled down to.
	ThumbMaxWidth = 300

	// maxImagePixels rejects decompression bombs before a full decode.
	maxImagePixels = 50_000_000

	thumbQuality = 80
)

// ErrUnsupportedType is returned for uploads that are not JPEG, PNG or WebP.
var ErrUnsupportedType = errors.New("unsupported image type")

// Detect sniffs the content type of data and returns it with the file
// extension used when storing it.
func Detect(data []byte) (contentType, ext string, err error) {
	contentType = http.DetectContentType(data)
	switch contentType {
	case "image/jpeg":
		return contentType, ".jpg", nil
	case "image/png":
		return contentType, ".png", nil
	case "image/webp":
		return contentType, ".webp", nil
	default:
		return contentType, "", ErrUnsupportedType
	}
}

// ThumbName returns the filename of the thumbnail stored for filename.
func ThumbName(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename)) + "_thumb.jpg"
}

// Thumbnail creates a JPEG thumbnail from an image, constrained to
// maxWidth while preserving aspect ratio. Returns nil if the image is
// already narrower than maxWidth.
func Thumbnail(data []byte, maxWidth int) ([]byte, error) {
	// Decode config first to check dimensions without full decode.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxImagePixels)
	}

	if cfg.Width <= maxWidth {
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	newHeight := max(1, int(float64(bounds.Dy())*ratio))

	// Resize using CatmullRom (high quality).
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
