// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package memstore

import (
	"context"
	"path"
	"sync"

	"github.com/google/uuid"
)

// Images is an in-memory image store.
type Images struct {
	mu    sync.Mutex
	files map[string][]byte

	// FailStore and FailRemove, when set, are returned by Store and Remove.
	FailStore  error
	FailRemove error
}

// NewImages returns an empty image store.
func NewImages() *Images {
	return &Images{files: make(map[string][]byte)}
}

// Store saves data under a generated filename keeping name's extension.
func (i *Images) Store(ctx context.Context, name string, data []byte) (string, error) {
	if i.FailStore != nil {
		return "", i.FailStore
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	filename := uuid.NewString() + path.Ext(name)
	i.files[filename] = append([]byte{}, data...)
	return filename, nil
}

// Remove deletes a stored file. Removing an unknown file is not an error.
func (i *Images) Remove(ctx context.Context, filename string) error {
	if i.FailRemove != nil {
		return i.FailRemove
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.files, filename)
	return nil
}

// Has reports whether filename is stored.
func (i *Images) Has(filename string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.files[filename]
	return ok
}

// Len returns the number of stored files.
func (i *Images) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.files)
}
