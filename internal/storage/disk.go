// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// UploadsPath is the URL prefix disk-stored files are served under.
const UploadsPath = "/uploads/"

// Disk stores objects as files in one directory.
type Disk struct {
	dir string
}

// NewDisk returns a disk backend rooted at dir, creating it if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// Dir returns the directory files are written to.
func (d *Disk) Dir() string {
	return d.dir
}

func (d *Disk) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(d.dir, key), nil
}

// Put writes data to a temporary file and renames it into place.
func (d *Disk) Put(ctx context.Context, key, contentType string, data []byte) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("disk upload %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("disk upload %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("disk upload %s: %w", key, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("disk upload %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("disk upload %s: %w", key, err)
	}
	return nil
}

// Delete removes the file for key. A missing file is not an error.
func (d *Disk) Delete(ctx context.Context, key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("disk delete %s: %w", key, err)
	}
	return nil
}

// URL returns the path the file is served under.
func (d *Disk) URL(key string) string {
	return UploadsPath + key
}
