package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/swirl-rewards/internal/domain"
	"github.com/msomdec/swirl-rewards/internal/handler"
	"github.com/msomdec/swirl-rewards/internal/repository/sqlite"
	"github.com/msomdec/swirl-rewards/internal/service"
)

const testSessionSecret = "test-secret-key-for-unit-tests-0123456789"

// testAddrFactor scales the per-session redeem limit into the per-IP one.
// Every test client connects from the same loopback address.
const testAddrFactor = 3

type testServer struct {
	*httptest.Server
	db       *sqlite.DB
	sessions *service.SessionRegistry
}

// newTestServer starts the full API on a migrated and seeded temp database.
// redeemPerMinute sets the per-session redeem rate limit.
func newTestServer(t *testing.T, redeemPerMinute int) *testServer {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := service.SeedCatalog(ctx, db.Rewards()); err != nil {
		t.Fatalf("SeedCatalog: %v", err)
	}
	votes := service.NewVoteService(db.Flavors())
	if err := votes.SeedFlavors(ctx); err != nil {
		t.Fatalf("SeedFlavors: %v", err)
	}

	sessions := service.NewSessionRegistry(func(ns string) domain.LocalStorage {
		return db.LocalStorage(ns)
	}, db.Rewards(), time.Hour)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Config{
		Sessions:          sessions,
		Tokens:            service.NewSessionTokens(testSessionSecret, time.Hour),
		Votes:             votes,
		RedeemLimiter:     service.PerMinute(redeemPerMinute),
		RedeemAddrLimiter: service.PerMinute(redeemPerMinute * testAddrFactor),
		DB:                db.SqlDB,
		AdminEmail:        service.DefaultAdminEmail,
		CookieSecure:      false,
	})

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, db: db, sessions: sessions}
}

// client is a browser-like API client with its own cookie jar.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (s *testServer) newClient(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &client{t: t, base: s.URL, http: &http.Client{Jar: jar}}
}

// do sends body as JSON and decodes the JSON response into a map. A 204
// response yields a nil map.
func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func (c *client) login(email string) map[string]any {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "x"})
	if status != http.StatusOK {
		c.t.Fatalf("login: expected 200, got %d (%v)", status, body)
	}
	return body["account"].(map[string]any)
}

func (c *client) points() int {
	c.t.Helper()
	_, body := c.do(http.MethodGet, "/api/auth/me", nil)
	account, ok := body["account"].(map[string]any)
	if !ok {
		c.t.Fatal("expected a signed-in account")
	}
	return int(account["points"].(float64))
}

func (c *client) addToCart(rewardID string) map[string]any {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/cart/items", map[string]string{"rewardId": rewardID})
	if status != http.StatusOK {
		c.t.Fatalf("add to cart: expected 200, got %d (%v)", status, body)
	}
	return body
}

func cartItems(body map[string]any) []any {
	items, _ := body["items"].([]any)
	return items
}
