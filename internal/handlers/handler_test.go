// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory stores, a disk image store in a
// temporary directory and real signed tokens.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"tyremarket/internal/auth"
	"tyremarket/internal/listing"
	"tyremarket/internal/metrics"
	"tyremarket/internal/middleware"
	"tyremarket/internal/models"
	"tyremarket/internal/session"
	"tyremarket/internal/storage"
	"tyremarket/internal/store/memstore"
)

const testPassword = "password123"

// memSessions is an in-memory session store.
type memSessions struct {
	mu   sync.Mutex
	data map[string]session.Data
}

func newMemSessions() *memSessions {
	return &memSessions{data: make(map[string]session.Data)}
}

func (s *memSessions) Create(_ context.Context, id string, d *session.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = *d
	return nil
}

func (s *memSessions) Get(_ context.Context, id string) (*session.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *memSessions) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *memSessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// testEnv is a fully wired API over in-memory state.
type testEnv struct {
	db       *memstore.DB
	disk     *storage.Disk
	sessions *memSessions
	metrics  *metrics.Metrics
	handler  http.Handler

	category  *models.Category
	goodyear  *models.Manufacturer
	winter    models.Ref
	seller    *models.Seller
	other     *models.Seller
	house     *models.Seller
	sellerTok string
	otherTok  string
	adminTok  string
}

// newTestEnv builds the API with one category {Goodyear, Winter Tyre},
// two sellers with their own logins and an admin account.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := memstore.New()
	disk, err := storage.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	m := metrics.New(prometheus.NewRegistry())

	env := &testEnv{db: db, disk: disk, sessions: newMemSessions(), metrics: m}

	env.goodyear, err = db.Manufacturers.Create(ctx, "Goodyear")
	if err != nil {
		t.Fatalf("create manufacturer: %v", err)
	}
	env.category, err = db.Categories.Create(ctx, &models.Category{
		Name:          "Car Tyres",
		Manufacturers: []models.Ref{env.goodyear.Ref()},
		Types:         []models.Ref{{Name: "Winter Tyre"}},
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	env.winter = env.category.Types[0]

	env.seller = mustSeller(t, db, "Tyre World", 4.5)
	env.other = mustSeller(t, db, "Wheel Deals", 3.9)
	env.house = mustSeller(t, db, "Marketplace", 5)

	mustUser(t, db, "seller@example.com", models.RoleSeller, &env.seller.ID)
	mustUser(t, db, "other@example.com", models.RoleSeller, &env.other.ID)
	mustUser(t, db, "admin@example.com", models.RoleAdmin, &env.house.ID)
	mustUser(t, db, "buyer@example.com", models.RoleCustomer, nil)

	tokens := auth.NewTokens(strings.Repeat("s", 32), time.Hour)
	svc := listing.NewService(listing.Deps{
		Categories: db.Categories,
		Sellers:    db.Sellers,
		Tyres:      db.Tyres,
		Images:     storage.NewImages(disk),
		Tx:         db,
		Metrics:    m,
	})

	authH := NewAuth(db.Users, tokens, env.sessions, m)
	tyresH := NewTyres(svc)
	catalogH := NewCatalog(db.Categories, db.Manufacturers, db.Sellers)
	adminH := NewAdmin(listing.NewReconciler(db.Sellers, db, time.Minute, m))

	requireAuth := middleware.RequireAuth(tokens, env.sessions)

	r := chi.NewRouter()
	r.Post("/auth", authH.Login)
	r.With(requireAuth).Delete("/auth", authH.Logout)
	r.Route("/tyres", func(r chi.Router) {
		r.Get("/", tyresH.List)
		r.Get("/{id}", tyresH.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireSeller)
			r.Post("/", tyresH.Create)
			r.Put("/{id}", tyresH.Update)
			r.Delete("/{id}", tyresH.Delete)
		})
	})
	r.Get("/categories", catalogH.ListCategories)
	r.Get("/categories/{id}", catalogH.GetCategory)
	r.Get("/manufacturers", catalogH.ListManufacturers)
	r.Get("/sellers/{id}", catalogH.GetSeller)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireAdmin)
		r.Post("/categories", catalogH.CreateCategory)
		r.Post("/manufacturers", catalogH.CreateManufacturer)
		r.Post("/sellers", catalogH.CreateSeller)
		r.Post("/admin/reconcile", adminH.Reconcile)
	})
	env.handler = r

	env.sellerTok = env.login(t, "seller@example.com")
	env.otherTok = env.login(t, "other@example.com")
	env.adminTok = env.login(t, "admin@example.com")
	return env
}

func mustSeller(t *testing.T, db *memstore.DB, name string, rating float64) *models.Seller {
	t.Helper()
	s, err := db.Sellers.Create(context.Background(), name, rating)
	if err != nil {
		t.Fatalf("create seller: %v", err)
	}
	return s
}

func mustUser(t *testing.T, db *memstore.DB, email string, role models.Role, sellerID *uuid.UUID) *models.User {
	t.Helper()
	u, err := db.Users.Create(context.Background(), email, testPassword, email, role, sellerID)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// do sends a request through the API and returns the recorded response.
func (e *testEnv) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, body)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		r.Header.Set(middleware.TokenHeader, token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func (e *testEnv) doJSON(method, path, token string, v any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(v)
	return e.do(method, path, token, bytes.NewReader(data), "application/json")
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	w := e.doJSON("POST", "/auth", "", map[string]string{"email": email, "password": testPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, w.Code, w.Body.String())
	}
	return w.Body.String()
}

// tyreForm returns valid listing fields for a Goodyear 195/65/R15 winter
// tyre sold by seller.
func (e *testEnv) tyreForm(seller uuid.UUID) map[string]string {
	return map[string]string{
		"category":         e.category.ID.String(),
		"mnf":              e.goodyear.ID.String(),
		"type":             e.winter.ID.String(),
		"seller":           seller.String(),
		"width":            "195",
		"height":           "65",
		"rim":              "15",
		"year":             "2024",
		"price":            "89.99",
		"numberInStock":    "12",
		"homeInstallation": "true",
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// multipartBody encodes fields and, when img is non-nil, a productImage
// file part.
func multipartBody(t *testing.T, fields map[string]string, img []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if img != nil {
		fw, err := mw.CreateFormFile("productImage", "tyre.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(img)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// createTyre posts a valid listing as token and returns the created tyre.
func (e *testEnv) createTyre(t *testing.T, token string, seller uuid.UUID) models.Tyre {
	t.Helper()
	body, ct := multipartBody(t, e.tyreForm(seller), pngBytes(t, 8, 8))
	w := e.do("POST", "/tyres", token, body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("create tyre: status %d body %s", w.Code, w.Body.String())
	}
	return decode[models.Tyre](t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

// requestWithID builds a request whose chi route carries the {id} param,
// for calling a handler without the router.
func requestWithID(method, prefix, id string) *http.Request {
	r := httptest.NewRequest(method, prefix+"/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorBody](t, w).Error
}
