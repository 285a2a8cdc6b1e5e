package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/config"
	"github.com/arunika0/menu/internal/database"
	"github.com/arunika0/menu/internal/events"
	"github.com/arunika0/menu/internal/handler"
	"github.com/arunika0/menu/internal/middleware"
	"github.com/arunika0/menu/internal/model"
	"github.com/arunika0/menu/internal/repository"
	"github.com/arunika0/menu/internal/storage"
)

// recordingPublisher hands every published event to a channel.
type recordingPublisher chan events.CatalogEvent

func (p recordingPublisher) Publish(_ context.Context, ev events.CatalogEvent) error {
	p <- ev
	return nil
}

type testServer struct {
	t      *testing.T
	e      *echo.Echo
	events recordingPublisher

	tenantOne, tenantTwo    uint64
	breakfast, drinks       uint64
	pancakes, lemonade      uint64
	adminToken, tenantToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newServer(t, nil)
}

// newCachedTestServer backs the listing cache with an in-process Redis.
func newCachedTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return newServer(t, rdb)
}

func newServer(t *testing.T, rdb *redis.Client) *testServer {
	t.Helper()
	dir := t.TempDir()
	db, err := database.OpenSQLite(filepath.Join(dir, "menu.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	if err := database.ApplySchema(ctx, db, "sqlite"); err != nil {
		t.Fatalf("schema: %v", err)
	}

	users := repository.NewUserRepo(db)
	restaurants := repository.NewRestaurantRepo(db)
	categories := repository.NewCategoryRepo(db)
	menu := repository.NewMenuRepo(db)
	hasher := auth.NewHasher(bcrypt.MinCost)
	codec := auth.NewCodec("router-test-secret")
	files, err := storage.NewLocalStore(filepath.Join(dir, "uploads"), 1024, "")
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	s := &testServer{t: t, e: echo.New(), events: make(recordingPublisher, 64)}
	cache := middleware.NewResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20}, rdb)
	notify := &handler.Notifier{
		Cache:  cache,
		Events: s.events,
	}
	RegisterRoutes(s.e, Deps{
		DB:            db,
		Cache:         cache,
		Authenticator: auth.NewAuthenticator(codec),
		Auth:          handler.NewAuthHandler(auth.NewVerifier(users, hasher, codec, time.Hour)),
		Users:         &handler.UserHandler{Users: users, Restaurants: restaurants, Hasher: hasher, Notify: notify},
		Restaurants:   &handler.RestaurantHandler{Restaurants: restaurants, Menu: menu, Files: files, Notify: notify},
		Categories:    &handler.CategoryHandler{Categories: categories, Restaurants: restaurants, Notify: notify},
		Menu:          &handler.MenuHandler{Menu: menu, Categories: categories, Files: files, Notify: notify},
		Upload:        &handler.UploadHandler{Files: files},
		UploadDir:     files.Dir,
	})

	mustRestaurant := func(name string) uint64 {
		r := model.Restaurant{Name: name}
		if err := restaurants.Create(ctx, &r); err != nil {
			t.Fatalf("restaurant: %v", err)
		}
		return r.ID
	}
	mustCategory := func(rid uint64, name string) uint64 {
		c := model.Category{Name: name, RestaurantID: rid}
		if err := categories.Create(ctx, &c); err != nil {
			t.Fatalf("category: %v", err)
		}
		return c.ID
	}
	mustItem := func(rid, cid uint64, name string, price float64) uint64 {
		m := model.MenuItem{Name: name, Price: price, CategoryID: &cid, RestaurantID: rid}
		if err := menu.Create(ctx, &m); err != nil {
			t.Fatalf("menu item: %v", err)
		}
		return m.ID
	}
	mustUser := func(name, password string, role model.Role, rid *uint64) {
		hash, err := hasher.Hash(password)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		if _, err := users.Create(ctx, model.User{Username: name, PasswordHash: hash, Role: role, RestaurantID: rid}); err != nil {
			t.Fatalf("user: %v", err)
		}
	}

	s.tenantOne = mustRestaurant("One")
	s.tenantTwo = mustRestaurant("Two")
	s.breakfast = mustCategory(s.tenantOne, "breakfast")
	s.drinks = mustCategory(s.tenantTwo, "drinks")
	s.pancakes = mustItem(s.tenantOne, s.breakfast, "Buttermilk Pancakes", 15.99)
	s.lemonade = mustItem(s.tenantTwo, s.drinks, "Lemonade", 3.5)
	mustUser("admin", "admin-pass", model.RoleSuperAdmin, nil)
	mustUser("one-admin", "one-pass", model.RoleRestaurantAdmin, &s.tenantOne)

	s.adminToken = s.login("admin", "admin-pass")
	s.tenantToken = s.login("one-admin", "one-pass")
	return s
}

func (s *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/login", echo.Map{"username": username, "password": password}, "")
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: status %d %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(s.t, rec, &resp)
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d: %s", rec.Code, want, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	expectStatus(t, rec, status)
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	if body.Error != msg {
		t.Fatalf("error = %q, want %q", body.Error, msg)
	}
}

func id(v uint64) string { return strconv.FormatUint(v, 10) }

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/login", echo.Map{"username": "one-admin", "password": "one-pass"}, "")
	expectStatus(t, rec, http.StatusOK)
	var resp struct {
		Token        string     `json:"token"`
		ExpiresAt    time.Time  `json:"expires_at"`
		Role         model.Role `json:"role"`
		RestaurantID *uint64    `json:"restaurant_id"`
	}
	decode(t, rec, &resp)
	if resp.Token == "" || resp.Role != model.RoleRestaurantAdmin || resp.RestaurantID == nil || *resp.RestaurantID != s.tenantOne {
		t.Fatalf("unexpected login response %+v", resp)
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Fatalf("expires_at in the past: %v", resp.ExpiresAt)
	}

	rec = s.do(http.MethodPost, "/api/login", echo.Map{"username": "admin", "password": "wrong"}, "")
	expectError(t, rec, http.StatusBadRequest, "invalid credentials")
	if bytes.Contains(rec.Body.Bytes(), []byte("token")) {
		t.Fatalf("failed login leaked a token: %s", rec.Body.String())
	}
	rec = s.do(http.MethodPost, "/api/login", echo.Map{"username": "ghost", "password": "wrong"}, "")
	expectError(t, rec, http.StatusBadRequest, "invalid credentials")

	rec = s.do(http.MethodGet, "/api/me", nil, s.adminToken)
	expectStatus(t, rec, http.StatusOK)
	var me model.Identity
	decode(t, rec, &me)
	if me.Username != "admin" || me.Role != model.RoleSuperAdmin {
		t.Fatalf("unexpected identity %+v", me)
	}
	expectStatus(t, s.do(http.MethodGet, "/api/me", nil, ""), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodGet, "/api/me", nil, "garbage"), http.StatusUnauthorized)
}

func menuNames(t *testing.T, rec *httptest.ResponseRecorder) map[string]bool {
	t.Helper()
	expectStatus(t, rec, http.StatusOK)
	var items []model.MenuItem
	decode(t, rec, &items)
	out := map[string]bool{}
	for _, it := range items {
		out[it.Name] = true
	}
	return out
}

func TestMenuListScoping(t *testing.T) {
	s := newTestServer(t)

	all := menuNames(t, s.do(http.MethodGet, "/api/menu", nil, ""))
	if len(all) != 2 || !all["Buttermilk Pancakes"] || !all["Lemonade"] {
		t.Fatalf("anonymous list across tenants = %v", all)
	}
	one := menuNames(t, s.do(http.MethodGet, "/api/menu?tenant_id="+id(s.tenantOne), nil, ""))
	if len(one) != 1 || !one["Buttermilk Pancakes"] {
		t.Fatalf("tenant_id filter = %v", one)
	}
	two := menuNames(t, s.do(http.MethodGet, "/api/menu?restaurant_id="+id(s.tenantTwo), nil, s.adminToken))
	if len(two) != 1 || !two["Lemonade"] {
		t.Fatalf("super_admin restaurant_id filter = %v", two)
	}
	pinned := menuNames(t, s.do(http.MethodGet, "/api/menu?tenant_id="+id(s.tenantTwo), nil, s.tenantToken))
	if len(pinned) != 1 || !pinned["Buttermilk Pancakes"] {
		t.Fatalf("restaurant_admin escaped its tenant: %v", pinned)
	}
	// an invalid token on an optional route is treated as anonymous
	anon := menuNames(t, s.do(http.MethodGet, "/api/menu", nil, "garbage"))
	if len(anon) != 2 {
		t.Fatalf("invalid token list = %v", anon)
	}
	byCategory := menuNames(t, s.do(http.MethodGet, "/api/menu?category_id="+id(s.drinks), nil, ""))
	if len(byCategory) != 1 || !byCategory["Lemonade"] {
		t.Fatalf("category filter = %v", byCategory)
	}
	expectStatus(t, s.do(http.MethodGet, "/api/menu?tenant_id=abc", nil, ""), http.StatusBadRequest)

	rec := s.do(http.MethodGet, "/api/restaurants", nil, s.tenantToken)
	expectStatus(t, rec, http.StatusOK)
	var rests []model.Restaurant
	decode(t, rec, &rests)
	if len(rests) != 1 || rests[0].ID != s.tenantOne {
		t.Fatalf("restaurant_admin restaurant list = %+v", rests)
	}
	rec = s.do(http.MethodGet, "/api/categories?tenant_id="+id(s.tenantTwo), nil, "")
	var cats []model.Category
	decode(t, rec, &cats)
	if len(cats) != 1 || cats[0].ID != s.drinks {
		t.Fatalf("category list = %+v", cats)
	}
}

func TestMenuOwnership(t *testing.T) {
	s := newTestServer(t)
	update := echo.Map{"name": "Iced Lemonade", "price": 4.0, "category_id": s.drinks}

	rec := s.do(http.MethodPut, "/api/menu/"+id(s.lemonade), update, s.tenantToken)
	expectStatus(t, rec, http.StatusForbidden)
	expectStatus(t, s.do(http.MethodDelete, "/api/menu/"+id(s.lemonade), nil, s.tenantToken), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodPut, "/api/menu/"+id(s.lemonade), update, ""), http.StatusUnauthorized)

	own := echo.Map{"name": "Pancakes", "price": 12.5, "description": "stack of three", "category_id": s.breakfast}
	rec = s.do(http.MethodPut, "/api/menu/"+id(s.pancakes), own, s.tenantToken)
	expectStatus(t, rec, http.StatusOK)
	var item model.MenuItem
	decode(t, rec, &item)
	if item.Name != "Pancakes" || item.Price != 12.5 || item.Category == nil || *item.Category != "breakfast" {
		t.Fatalf("unexpected updated item %+v", item)
	}

	// super_admin bypasses ownership
	expectStatus(t, s.do(http.MethodPut, "/api/menu/"+id(s.lemonade), update, s.adminToken), http.StatusOK)
	expectStatus(t, s.do(http.MethodPut, "/api/menu/9999", update, s.adminToken), http.StatusNotFound)
}

func TestMenuCreateValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/menu", echo.Map{"name": "Smuggled", "price": 2.0, "category_id": s.drinks}, s.tenantToken)
	expectError(t, rec, http.StatusBadRequest, "invalid category for tenant")
	rec = s.do(http.MethodPost, "/api/menu", echo.Map{"name": "Ghost", "price": 2.0, "category_id": 9999}, s.tenantToken)
	expectError(t, rec, http.StatusBadRequest, "invalid category for tenant")
	rec = s.do(http.MethodPost, "/api/menu", echo.Map{"name": "Free", "price": 0, "category_id": s.breakfast}, s.tenantToken)
	expectError(t, rec, http.StatusBadRequest, "price must be greater than zero")
	rec = s.do(http.MethodPost, "/api/menu", echo.Map{"name": "No category", "price": 1.0}, s.tenantToken)
	expectError(t, rec, http.StatusBadRequest, "name, price and category_id are required")
	rec = s.do(http.MethodPost, "/api/menu", echo.Map{"name": "Elsewhere", "price": 1.0, "category_id": s.breakfast, "restaurant_id": s.tenantTwo}, s.tenantToken)
	expectStatus(t, rec, http.StatusForbidden)
	rec = s.do(http.MethodPost, "/api/menu", echo.Map{"name": "Lost", "price": 1.0, "category_id": s.breakfast}, s.adminToken)
	expectError(t, rec, http.StatusBadRequest, "restaurant_id is required")

	rec = s.do(http.MethodPost, "/api/menu", echo.Map{"name": "Waffles", "price": 8.25, "category_id": s.breakfast}, s.tenantToken)
	expectStatus(t, rec, http.StatusCreated)
	var item model.MenuItem
	decode(t, rec, &item)
	if item.ID == 0 || item.RestaurantID != s.tenantOne {
		t.Fatalf("unexpected created item %+v", item)
	}
	expectStatus(t, s.do(http.MethodGet, "/api/menu/"+id(item.ID), nil, ""), http.StatusOK)

	select {
	case ev := <-s.events:
		if ev.Entity != events.EntityMenuItem || ev.Action != events.ActionCreated || ev.ID != item.ID || ev.ActorRole != string(model.RoleRestaurantAdmin) {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no catalog event published")
	}
}

func TestCategoryEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/categories", echo.Map{"name": "desserts"}, s.adminToken)
	expectError(t, rec, http.StatusBadRequest, "restaurant_id is required")
	rec = s.do(http.MethodPost, "/api/categories", echo.Map{"name": "desserts", "restaurant_id": 9999}, s.adminToken)
	expectError(t, rec, http.StatusBadRequest, "unknown restaurant")
	rec = s.do(http.MethodPost, "/api/categories", echo.Map{"name": "desserts", "restaurant_id": s.tenantTwo}, s.adminToken)
	expectStatus(t, rec, http.StatusCreated)

	rec = s.do(http.MethodPost, "/api/categories", echo.Map{"name": "breakfast"}, s.tenantToken)
	expectStatus(t, rec, http.StatusConflict)
	rec = s.do(http.MethodPost, "/api/categories", echo.Map{"name": "lunch"}, s.tenantToken)
	expectStatus(t, rec, http.StatusCreated)
	var lunch model.Category
	decode(t, rec, &lunch)
	if lunch.RestaurantID != s.tenantOne {
		t.Fatalf("category created under %d, want %d", lunch.RestaurantID, s.tenantOne)
	}

	expectStatus(t, s.do(http.MethodPut, "/api/categories/"+id(s.drinks), echo.Map{"name": "x"}, s.tenantToken), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodDelete, "/api/categories/"+id(s.drinks), nil, s.tenantToken), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodPut, "/api/categories/"+id(lunch.ID), echo.Map{"name": "breakfast"}, s.tenantToken), http.StatusConflict)
	expectStatus(t, s.do(http.MethodPut, "/api/categories/"+id(lunch.ID), echo.Map{"name": "brunch"}, s.tenantToken), http.StatusOK)

	expectStatus(t, s.do(http.MethodDelete, "/api/categories/"+id(s.breakfast), nil, s.tenantToken), http.StatusOK)
	rec = s.do(http.MethodGet, "/api/menu/"+id(s.pancakes), nil, "")
	expectStatus(t, rec, http.StatusOK)
	var item model.MenuItem
	decode(t, rec, &item)
	if item.CategoryID != nil {
		t.Fatalf("menu item still references deleted category: %+v", item)
	}
	expectStatus(t, s.do(http.MethodGet, "/api/categories/"+id(s.breakfast), nil, ""), http.StatusNotFound)
}

func TestRestaurantEndpoints(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(http.MethodPost, "/api/restaurants", echo.Map{"name": "Three"}, s.tenantToken), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodPost, "/api/restaurants", echo.Map{"name": "Three"}, ""), http.StatusUnauthorized)
	expectError(t, s.do(http.MethodPost, "/api/restaurants", echo.Map{"name": " "}, s.adminToken), http.StatusBadRequest, "name is required")

	rec := s.do(http.MethodPost, "/api/restaurants", echo.Map{"name": "Three", "address": "Side St 3"}, s.adminToken)
	expectStatus(t, rec, http.StatusCreated)
	var created model.Restaurant
	decode(t, rec, &created)
	if created.ID == 0 || created.Address == nil || *created.Address != "Side St 3" {
		t.Fatalf("unexpected restaurant %+v", created)
	}
	expectStatus(t, s.do(http.MethodPut, "/api/restaurants/"+id(created.ID), echo.Map{"name": "Three!"}, s.adminToken), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/restaurants/"+id(created.ID), nil, ""), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/restaurants/abc", nil, ""), http.StatusBadRequest)

	expectStatus(t, s.do(http.MethodDelete, "/api/restaurants/"+id(s.tenantTwo), nil, s.adminToken), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/menu/"+id(s.lemonade), nil, ""), http.StatusNotFound)
	expectStatus(t, s.do(http.MethodGet, "/api/categories/"+id(s.drinks), nil, ""), http.StatusNotFound)
	expectStatus(t, s.do(http.MethodDelete, "/api/restaurants/"+id(s.tenantTwo), nil, s.adminToken), http.StatusNotFound)
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(http.MethodGet, "/api/users", nil, s.tenantToken), http.StatusForbidden)

	rec := s.do(http.MethodPost, "/api/users", echo.Map{"username": "two-admin", "password": "two-pass-1", "role": "restaurant_admin"}, s.adminToken)
	expectStatus(t, rec, http.StatusBadRequest)
	rec = s.do(http.MethodPost, "/api/users", echo.Map{"username": "two-admin", "password": "two-pass-1", "role": "owner", "restaurant_id": s.tenantTwo}, s.adminToken)
	expectStatus(t, rec, http.StatusBadRequest)
	rec = s.do(http.MethodPost, "/api/users", echo.Map{"username": "two-admin", "password": "two-pass-1", "role": "restaurant_admin", "restaurant_id": 9999}, s.adminToken)
	expectError(t, rec, http.StatusBadRequest, "unknown restaurant")
	rec = s.do(http.MethodPost, "/api/users", echo.Map{"username": "two-admin", "password": "two-pass-1", "role": "restaurant_admin", "restaurant_id": s.tenantTwo}, s.adminToken)
	expectStatus(t, rec, http.StatusCreated)
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Fatalf("password material in response: %s", rec.Body.String())
	}
	var u model.User
	decode(t, rec, &u)

	rec = s.do(http.MethodPost, "/api/users", echo.Map{"username": "two-admin", "password": "two-pass-1", "role": "super_admin"}, s.adminToken)
	expectStatus(t, rec, http.StatusConflict)

	token := s.login("two-admin", "two-pass-1")
	names := menuNames(t, s.do(http.MethodGet, "/api/menu", nil, token))
	if len(names) != 1 || !names["Lemonade"] {
		t.Fatalf("new restaurant_admin sees %v", names)
	}

	rec = s.do(http.MethodPut, "/api/users/"+id(u.ID), echo.Map{"username": "two-admin", "role": "super_admin"}, s.adminToken)
	expectStatus(t, rec, http.StatusOK)
	// password unchanged on update without one
	s.login("two-admin", "two-pass-1")
	expectStatus(t, s.do(http.MethodPut, "/api/users/9999", echo.Map{"username": "x", "role": "super_admin"}, s.adminToken), http.StatusNotFound)

	rec = s.do(http.MethodGet, "/api/users", nil, s.adminToken)
	expectStatus(t, rec, http.StatusOK)
	var list []model.User
	decode(t, rec, &list)
	if len(list) != 3 {
		t.Fatalf("got %d users, want 3", len(list))
	}
}

func (s *testServer) upload(content []byte, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "dish.png")
	if err != nil {
		s.t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write(content)
	_ = w.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// uploadImage stores a small PNG and returns its public URL.
func (s *testServer) uploadImage(token string) string {
	s.t.Helper()
	rec := s.upload(pngImage, token)
	expectStatus(s.t, rec, http.StatusCreated)
	var resp struct {
		URL string `json:"url"`
	}
	decode(s.t, rec, &resp)
	return resp.URL
}

// served reports the status of a GET on a stored file.
func (s *testServer) served(url string) int {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec.Code
}

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUpload(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.upload(pngImage, ""), http.StatusUnauthorized)
	expectStatus(t, s.upload([]byte("plain text"), s.tenantToken), http.StatusBadRequest)
	expectStatus(t, s.upload(make([]byte, 2048), s.tenantToken), http.StatusBadRequest)

	url := s.uploadImage(s.tenantToken)
	got := httptest.NewRecorder()
	s.e.ServeHTTP(got, httptest.NewRequest(http.MethodGet, url, nil))
	if got.Code != http.StatusOK || !bytes.Equal(got.Body.Bytes(), pngImage) {
		t.Fatalf("stored image not served at %s: %d", url, got.Code)
	}

	// replacing the image on a menu item removes the old file
	item := echo.Map{"name": "Pancakes", "price": 9.0, "category_id": s.breakfast, "image": url}
	expectStatus(t, s.do(http.MethodPut, "/api/menu/"+id(s.pancakes), item, s.tenantToken), http.StatusOK)
	item["image"] = nil
	expectStatus(t, s.do(http.MethodPut, "/api/menu/"+id(s.pancakes), item, s.tenantToken), http.StatusOK)
	if code := s.served(url); code != http.StatusNotFound {
		t.Fatalf("replaced image still served: %d", code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}
}

func TestRestaurantDeleteRemovesItemImages(t *testing.T) {
	s := newTestServer(t)
	itemImage := s.uploadImage(s.adminToken)
	logo := s.uploadImage(s.adminToken)

	item := echo.Map{"name": "Lemonade", "price": 3.5, "category_id": s.drinks, "image": itemImage}
	expectStatus(t, s.do(http.MethodPut, "/api/menu/"+id(s.lemonade), item, s.adminToken), http.StatusOK)
	expectStatus(t, s.do(http.MethodPut, "/api/restaurants/"+id(s.tenantTwo), echo.Map{"name": "Two", "image": logo}, s.adminToken), http.StatusOK)

	expectStatus(t, s.do(http.MethodDelete, "/api/restaurants/"+id(s.tenantTwo), nil, s.adminToken), http.StatusOK)
	for _, url := range []string{itemImage, logo} {
		if code := s.served(url); code != http.StatusNotFound {
			t.Fatalf("%s still served after restaurant delete: %d", url, code)
		}
	}
}

func TestSharedImageKeptWhileReferenced(t *testing.T) {
	s := newTestServer(t)
	shared := s.uploadImage(s.tenantToken)

	pancakes := echo.Map{"name": "Pancakes", "price": 9.0, "category_id": s.breakfast, "image": shared}
	expectStatus(t, s.do(http.MethodPut, "/api/menu/"+id(s.pancakes), pancakes, s.tenantToken), http.StatusOK)
	rec := s.do(http.MethodPost, "/api/menu", echo.Map{"name": "Waffles", "price": 8.0, "category_id": s.breakfast, "image": shared}, s.tenantToken)
	expectStatus(t, rec, http.StatusCreated)
	var waffles model.MenuItem
	decode(t, rec, &waffles)

	pancakes["image"] = nil
	expectStatus(t, s.do(http.MethodPut, "/api/menu/"+id(s.pancakes), pancakes, s.tenantToken), http.StatusOK)
	if code := s.served(shared); code != http.StatusOK {
		t.Fatalf("image still used by another item was removed: %d", code)
	}

	expectStatus(t, s.do(http.MethodDelete, "/api/menu/"+id(waffles.ID), nil, s.tenantToken), http.StatusOK)
	if code := s.served(shared); code != http.StatusNotFound {
		t.Fatalf("unreferenced image still served: %d", code)
	}
}

func TestListingCacheFollowsWrites(t *testing.T) {
	s := newCachedTestServer(t)
	list := func(token string) (*httptest.ResponseRecorder, map[string]bool) {
		rec := s.do(http.MethodGet, "/api/menu", nil, token)
		return rec, menuNames(t, rec)
	}

	first, names := list("")
	if first.Header().Get("X-Cache") != "MISS" || len(names) != 2 {
		t.Fatalf("first list: cache=%q names=%v", first.Header().Get("X-Cache"), names)
	}
	second, _ := list("")
	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second list: cache=%q", second.Header().Get("X-Cache"))
	}

	scoped, names := list(s.tenantToken)
	if scoped.Header().Get("X-Cache") != "MISS" || len(names) != 1 || !names["Buttermilk Pancakes"] {
		t.Fatalf("restaurant_admin list: cache=%q names=%v", scoped.Header().Get("X-Cache"), names)
	}

	update := echo.Map{"name": "Pancakes", "price": 12.0, "category_id": s.breakfast}
	expectStatus(t, s.do(http.MethodPut, "/api/menu/"+id(s.pancakes), update, s.tenantToken), http.StatusOK)

	after, names := list("")
	if after.Header().Get("X-Cache") != "MISS" || !names["Pancakes"] || names["Buttermilk Pancakes"] {
		t.Fatalf("list after write: cache=%q names=%v", after.Header().Get("X-Cache"), names)
	}
}
