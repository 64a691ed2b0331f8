// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package memstore is an in-memory implementation of the stores used by
// the listing service and the HTTP handlers. It mirrors the PostgreSQL
// stores' contracts (nil, nil for missing rows; idempotent listing adds)
// and supports transactions with rollback so unit tests exercise the same
// failure paths as production. Fail* fields inject errors.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tyremarket/internal/models"
)

// ErrInjected is a convenience error for failure injection in tests.
var ErrInjected = errors.New("injected failure")

type txKey struct{}

type state struct {
	categories    map[uuid.UUID]models.Category
	manufacturers map[uuid.UUID]models.Manufacturer
	sellers       map[uuid.UUID]models.Seller
	tyres         map[uuid.UUID]models.Tyre
	users         map[uuid.UUID]models.User
}

func (s *state) clone() *state {
	c := &state{
		categories:    make(map[uuid.UUID]models.Category, len(s.categories)),
		manufacturers: make(map[uuid.UUID]models.Manufacturer, len(s.manufacturers)),
		sellers:       make(map[uuid.UUID]models.Seller, len(s.sellers)),
		tyres:         make(map[uuid.UUID]models.Tyre, len(s.tyres)),
		users:         make(map[uuid.UUID]models.User, len(s.users)),
	}
	for k, v := range s.categories {
		c.categories[k] = copyCategory(v)
	}
	for k, v := range s.manufacturers {
		c.manufacturers[k] = v
	}
	for k, v := range s.sellers {
		c.sellers[k] = copySeller(v)
	}
	for k, v := range s.tyres {
		c.tyres[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

// DB holds all in-memory tables. The exported repos are views over it.
type DB struct {
	mu   sync.Mutex // guards data
	txMu sync.Mutex // serializes transactions
	data *state

	Categories    *CategoryRepo
	Manufacturers *ManufacturerRepo
	Sellers       *SellerRepo
	Tyres         *TyreRepo
	Users         *UserRepo
}

// New returns an empty in-memory database.
func New() *DB {
	db := &DB{data: (&state{}).clone()}
	db.Categories = &CategoryRepo{db: db}
	db.Manufacturers = &ManufacturerRepo{db: db}
	db.Sellers = &SellerRepo{db: db}
	db.Tyres = &TyreRepo{db: db}
	db.Users = &UserRepo{db: db}
	return db
}

// InTx runs fn as a transaction: transactions are serialized and all
// changes made by fn are discarded if it returns an error. Nested calls
// join the outer transaction.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snapshot := db.data.clone()
	db.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.mu.Lock()
		db.data = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

func (db *DB) lock() func() {
	db.mu.Lock()
	return db.mu.Unlock
}

func copyCategory(c models.Category) models.Category {
	c.Manufacturers = append([]models.Ref{}, c.Manufacturers...)
	c.Types = append([]models.Ref{}, c.Types...)
	return c
}

func copySeller(s models.Seller) models.Seller {
	s.Listings = append([]uuid.UUID{}, s.Listings...)
	return s
}

// CategoryRepo is the in-memory category table.
type CategoryRepo struct {
	db *DB
}

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	defer r.db.lock()()
	out := []models.Category{}
	for _, c := range r.db.data.categories {
		out = append(out, copyCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// FindByID returns the category or nil.
func (r *CategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	defer r.db.lock()()
	c, ok := r.db.data.categories[id]
	if !ok {
		return nil, nil
	}
	c = copyCategory(c)
	return &c, nil
}

// Create inserts a category, assigning ids where missing.
func (r *CategoryRepo) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	defer r.db.lock()()
	created := copyCategory(*c)
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	for i := range created.Types {
		if created.Types[i].ID == uuid.Nil {
			created.Types[i].ID = uuid.New()
		}
	}
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.db.data.categories[created.ID] = created
	out := copyCategory(created)
	return &out, nil
}

// ManufacturerRepo is the in-memory manufacturer table.
type ManufacturerRepo struct {
	db *DB
}

// List returns all manufacturers ordered by name.
func (r *ManufacturerRepo) List(ctx context.Context) ([]models.Manufacturer, error) {
	defer r.db.lock()()
	out := []models.Manufacturer{}
	for _, m := range r.db.data.manufacturers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// FindByID returns the manufacturer or nil.
func (r *ManufacturerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Manufacturer, error) {
	defer r.db.lock()()
	m, ok := r.db.data.manufacturers[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// Create inserts a manufacturer.
func (r *ManufacturerRepo) Create(ctx context.Context, name string) (*models.Manufacturer, error) {
	defer r.db.lock()()
	m := models.Manufacturer{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	r.db.data.manufacturers[m.ID] = m
	return &m, nil
}

// SellerRepo is the in-memory seller table including listing sequences.
type SellerRepo struct {
	db *DB

	// FailAddListing, when set, is returned by AddListing.
	FailAddListing error
}

// FindByID returns the seller with its listings, or nil.
func (r *SellerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	defer r.db.lock()()
	s, ok := r.db.data.sellers[id]
	if !ok {
		return nil, nil
	}
	s = copySeller(s)
	return &s, nil
}

// FindForUpdate returns the seller without listings. Transactions are
// already serialized, so no row lock is needed.
func (r *SellerRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	s, err := r.FindByID(ctx, id)
	if s != nil {
		s.Listings = nil
	}
	return s, err
}

// Create inserts a seller.
func (r *SellerRepo) Create(ctx context.Context, name string, rating float64) (*models.Seller, error) {
	defer r.db.lock()()
	s := models.Seller{ID: uuid.New(), Name: name, Rating: rating, Listings: []uuid.UUID{}, CreatedAt: time.Now()}
	r.db.data.sellers[s.ID] = s
	s = copySeller(s)
	return &s, nil
}

// Listings returns the seller's listing sequence.
func (r *SellerRepo) Listings(ctx context.Context, sellerID uuid.UUID) ([]uuid.UUID, error) {
	defer r.db.lock()()
	return append([]uuid.UUID{}, r.db.data.sellers[sellerID].Listings...), nil
}

// AddListing appends tyreID unless it is already listed.
func (r *SellerRepo) AddListing(ctx context.Context, sellerID, tyreID uuid.UUID) error {
	if r.FailAddListing != nil {
		return r.FailAddListing
	}
	defer r.db.lock()()
	s, ok := r.db.data.sellers[sellerID]
	if !ok {
		return errors.New("add seller listing: seller does not exist")
	}
	if s.HasListing(tyreID) {
		return nil
	}
	s.Listings = append(s.Listings, tyreID)
	r.db.data.sellers[sellerID] = s
	return nil
}

// RemoveListing removes the entry equal to tyreID.
func (r *SellerRepo) RemoveListing(ctx context.Context, sellerID, tyreID uuid.UUID) (bool, error) {
	defer r.db.lock()()
	s, ok := r.db.data.sellers[sellerID]
	if !ok {
		return false, nil
	}
	for i, id := range s.Listings {
		if id == tyreID {
			s.Listings = append(s.Listings[:i:i], s.Listings[i+1:]...)
			r.db.data.sellers[sellerID] = s
			return true, nil
		}
	}
	return false, nil
}

// RepairMissing lists every tyre that is missing from its seller's sequence.
func (r *SellerRepo) RepairMissing(ctx context.Context) (int64, error) {
	defer r.db.lock()()
	tyres := sortedTyres(r.db.data.tyres, func(a, b models.Tyre) bool { return a.CreatedAt.Before(b.CreatedAt) })
	var n int64
	for _, t := range tyres {
		s, ok := r.db.data.sellers[t.Seller.ID]
		if !ok || s.HasListing(t.ID) {
			continue
		}
		s.Listings = append(s.Listings, t.ID)
		r.db.data.sellers[s.ID] = s
		n++
	}
	return n, nil
}

// PruneDangling drops entries whose tyre is gone or owned by another seller.
func (r *SellerRepo) PruneDangling(ctx context.Context) (int64, error) {
	defer r.db.lock()()
	var n int64
	for id, s := range r.db.data.sellers {
		kept := s.Listings[:0:0]
		for _, tyreID := range s.Listings {
			t, ok := r.db.data.tyres[tyreID]
			if ok && t.Seller.ID == id {
				kept = append(kept, tyreID)
				continue
			}
			n++
		}
		s.Listings = kept
		r.db.data.sellers[id] = s
	}
	return n, nil
}

// TyreRepo is the in-memory tyre table.
type TyreRepo struct {
	db *DB

	// FailCreate, when set, is returned by Create.
	FailCreate error
}

// Create inserts a tyre with a generated id.
func (r *TyreRepo) Create(ctx context.Context, t *models.Tyre) (*models.Tyre, error) {
	if r.FailCreate != nil {
		return nil, r.FailCreate
	}
	defer r.db.lock()()
	created := *t
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.db.data.tyres[created.ID] = created
	return &created, nil
}

// FindByID returns the tyre or nil.
func (r *TyreRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Tyre, error) {
	defer r.db.lock()()
	t, ok := r.db.data.tyres[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// FindForUpdate is FindByID; transactions are already serialized.
func (r *TyreRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Tyre, error) {
	return r.FindByID(ctx, id)
}

// List returns all tyres ordered by title, then creation time.
func (r *TyreRepo) List(ctx context.Context) ([]models.Tyre, error) {
	defer r.db.lock()()
	return sortedTyres(r.db.data.tyres, func(a, b models.Tyre) bool {
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

// Update replaces every field except id, image and creation time.
// Returns nil if the tyre does not exist.
func (r *TyreRepo) Update(ctx context.Context, t *models.Tyre) (*models.Tyre, error) {
	defer r.db.lock()()
	existing, ok := r.db.data.tyres[t.ID]
	if !ok {
		return nil, nil
	}
	updated := *t
	updated.ProductImage = existing.ProductImage
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	r.db.data.tyres[t.ID] = updated
	return &updated, nil
}

// Delete removes a tyre and returns it, or nil if it did not exist.
func (r *TyreRepo) Delete(ctx context.Context, id uuid.UUID) (*models.Tyre, error) {
	defer r.db.lock()()
	t, ok := r.db.data.tyres[id]
	if !ok {
		return nil, nil
	}
	delete(r.db.data.tyres, id)
	return &t, nil
}

// Put stores a tyre as is, bypassing the listing index. Tests use it to
// create drift.
func (r *TyreRepo) Put(t models.Tyre) {
	defer r.db.lock()()
	r.db.data.tyres[t.ID] = t
}

func sortedTyres(m map[uuid.UUID]models.Tyre, less func(a, b models.Tyre) bool) []models.Tyre {
	out := make([]models.Tyre, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// UserRepo is the in-memory user table.
type UserRepo struct {
	db *DB
}

// Create inserts a user with a bcrypt-hashed password.
func (r *UserRepo) Create(ctx context.Context, email, password, name string, role models.Role, sellerID *uuid.UUID) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	defer r.db.lock()()
	u := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		SellerID:     sellerID,
		CreatedAt:    time.Now(),
	}
	r.db.data.users[u.ID] = u
	return &u, nil
}

// FindByEmail returns the user or nil.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.db.lock()()
	for _, u := range r.db.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

// CheckPassword compares a plaintext password against the user's hash.
func (r *UserRepo) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
