package handler_test

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestIntegration_SignupGrantsWelcomeBonus(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.newClient(t)

	status, body := c.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Alex", "email": "alex@x.com", "password": "secret",
	})
	if status != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%v)", status, body)
	}
	account := body["account"].(map[string]any)
	if account["points"].(float64) != 50 {
		t.Errorf("expected 50 points, got %v", account["points"])
	}
	if account["role"] != "user" {
		t.Errorf("expected role user, got %v", account["role"])
	}
	if account["name"] != "Alex" {
		t.Errorf("expected name Alex, got %v", account["name"])
	}
}

func TestIntegration_LoginRoles(t *testing.T) {
	srv := newTestServer(t, 10)

	tests := []struct {
		email    string
		role     string
		points   float64
		redirect string
	}{
		{"admin@duopenotti.com", "admin", 9999, "/admin"},
		{"sam@example.com", "user", 0, "/rewards"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			c := srv.newClient(t)
			status, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": tt.email, "password": "anything"})
			if status != http.StatusOK {
				t.Fatalf("expected 200, got %d", status)
			}
			account := body["account"].(map[string]any)
			if account["role"] != tt.role {
				t.Errorf("expected role %s, got %v", tt.role, account["role"])
			}
			if account["points"].(float64) != tt.points {
				t.Errorf("expected %v points, got %v", tt.points, account["points"])
			}
			if body["redirect"] != tt.redirect {
				t.Errorf("expected redirect %s, got %v", tt.redirect, body["redirect"])
			}
		})
	}
}

func TestIntegration_LoginRequiresEmail(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.newClient(t)

	status, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": ""})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	if body["success"] != false {
		t.Errorf("expected success false, got %v", body["success"])
	}
}

func TestIntegration_MeAndLogout(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.newClient(t)

	_, body := c.do(http.MethodGet, "/api/auth/me", nil)
	if body["account"] != nil {
		t.Fatalf("expected no account before login, got %v", body["account"])
	}

	c.login("sam@example.com")
	_, body = c.do(http.MethodGet, "/api/auth/me", nil)
	if body["account"] == nil {
		t.Fatal("expected an account after login")
	}

	status, _ := c.do(http.MethodPost, "/api/auth/logout", nil)
	if status != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", status)
	}
	_, body = c.do(http.MethodGet, "/api/auth/me", nil)
	if body["account"] != nil {
		t.Fatalf("expected no account after logout, got %v", body["account"])
	}
}

func TestIntegration_ClientsAreIsolated(t *testing.T) {
	srv := newTestServer(t, 10)
	alice := srv.newClient(t)
	bob := srv.newClient(t)

	alice.login("alice@example.com")
	alice.addToCart("1")

	_, body := bob.do(http.MethodGet, "/api/auth/me", nil)
	if body["account"] != nil {
		t.Errorf("expected bob to be signed out, got %v", body["account"])
	}
	_, body = bob.do(http.MethodGet, "/api/cart", nil)
	if n := len(cartItems(body)); n != 0 {
		t.Errorf("expected bob's cart to be empty, got %d items", n)
	}
}

func TestIntegration_RedeemCode(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.newClient(t)

	status, body := c.do(http.MethodPost, "/api/redeem", map[string]string{"code": "DUO2024"})
	if status != http.StatusUnauthorized {
		t.Fatalf("signed out: expected 401, got %d", status)
	}
	if body["message"] != "Please login to redeem codes." {
		t.Errorf("unexpected message %v", body["message"])
	}

	c.login("sam@example.com")

	status, body = c.do(http.MethodPost, "/api/redeem", map[string]string{"code": "duo2024"})
	if status != http.StatusOK {
		t.Fatalf("first redeem: expected 200, got %d (%v)", status, body)
	}
	if body["message"] != "Success! You earned 100 points." {
		t.Errorf("unexpected message %v", body["message"])
	}
	if got := c.points(); got != 100 {
		t.Fatalf("expected 100 points, got %d", got)
	}

	status, body = c.do(http.MethodPost, "/api/redeem", map[string]string{"code": "DUO2024"})
	if status != http.StatusConflict {
		t.Fatalf("second redeem: expected 409, got %d", status)
	}
	if body["message"] != "Code already redeemed." {
		t.Errorf("unexpected message %v", body["message"])
	}
	if got := c.points(); got != 100 {
		t.Errorf("expected points unchanged at 100, got %d", got)
	}

	status, body = c.do(http.MethodPost, "/api/redeem", map[string]string{"code": "NOPE"})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("invalid code: expected 422, got %d", status)
	}
	if body["message"] != "Invalid code." {
		t.Errorf("unexpected message %v", body["message"])
	}
}

func TestIntegration_RedeemRateLimited(t *testing.T) {
	srv := newTestServer(t, 2)
	c := srv.newClient(t)
	c.login("sam@example.com")

	for i := range 2 {
		status, _ := c.do(http.MethodPost, "/api/redeem", map[string]string{"code": "WRONG"})
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("attempt %d: expected 422, got %d", i+1, status)
		}
	}

	status, body := c.do(http.MethodPost, "/api/redeem", map[string]string{"code": "DUO2024"})
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	if body["success"] != false {
		t.Errorf("expected success false, got %v", body["success"])
	}

	// Another session gets its own bucket.
	other := srv.newClient(t)
	other.login("kim@example.com")
	if status, _ := other.do(http.MethodPost, "/api/redeem", map[string]string{"code": "DUO2024"}); status != http.StatusOK {
		t.Errorf("other client: expected 200, got %d", status)
	}
}

func TestIntegration_RedeemRateLimitedWithoutCookies(t *testing.T) {
	srv := newTestServer(t, 2)

	// Without a jar every request starts a new session, so only the
	// per-address bucket holds the client back.
	cookieless := &client{t: t, base: srv.URL, http: &http.Client{}}
	for i := range 2 * testAddrFactor {
		status, _ := cookieless.do(http.MethodPost, "/api/redeem", map[string]string{"code": "WRONG"})
		if status != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, status)
		}
	}

	status, body := cookieless.do(http.MethodPost, "/api/redeem", map[string]string{"code": "DUO2024"})
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	if body["success"] != false {
		t.Errorf("expected success false, got %v", body["success"])
	}
}

func TestIntegration_CartOperations(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.newClient(t)

	c.addToCart("1")
	body := c.addToCart("1")
	items := cartItems(body)
	if len(items) != 1 {
		t.Fatalf("expected 1 cart line, got %d", len(items))
	}
	if q := items[0].(map[string]any)["quantity"].(float64); q != 2 {
		t.Errorf("expected quantity 2, got %v", q)
	}

	status, body := c.do(http.MethodPut, "/api/cart/items/1", map[string]int{"quantity": 5})
	if status != http.StatusOK {
		t.Fatalf("update quantity: expected 200, got %d", status)
	}
	items = cartItems(body)
	if len(items) != 1 || items[0].(map[string]any)["quantity"].(float64) != 5 {
		t.Fatalf("expected one line with quantity 5, got %v", items)
	}
	if body["total"].(float64) != 2500 {
		t.Errorf("expected total 2500, got %v", body["total"])
	}
	if body["count"].(float64) != 5 {
		t.Errorf("expected count 5, got %v", body["count"])
	}

	c.addToCart("4")
	_, body = c.do(http.MethodPut, "/api/cart/items/1", map[string]int{"quantity": 0})
	items = cartItems(body)
	if len(items) != 1 || items[0].(map[string]any)["id"] != "4" {
		t.Fatalf("expected only reward 4 left, got %v", items)
	}

	_, body = c.do(http.MethodDelete, "/api/cart/items/4", nil)
	if n := len(cartItems(body)); n != 0 {
		t.Fatalf("expected empty cart, got %d items", n)
	}

	c.addToCart("2")
	c.addToCart("3")
	_, body = c.do(http.MethodDelete, "/api/cart", nil)
	if n := len(cartItems(body)); n != 0 {
		t.Fatalf("expected empty cart after clear, got %d items", n)
	}

	status, _ = c.do(http.MethodPost, "/api/cart/items", map[string]string{"rewardId": "missing"})
	if status != http.StatusNotFound {
		t.Errorf("unknown reward: expected 404, got %d", status)
	}
}

func TestIntegration_CartQuantityIsBounded(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.newClient(t)
	c.login("sam@example.com")
	c.do(http.MethodPost, "/api/redeem", map[string]string{"code": "DUO2024"})
	c.addToCart("1")

	status, body := c.do(http.MethodPut, "/api/cart/items/1", map[string]int{"quantity": 922337203685477581})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%v)", status, body)
	}
	if body["success"] != false {
		t.Errorf("expected success false, got %v", body["success"])
	}

	_, body = c.do(http.MethodGet, "/api/cart", nil)
	items := cartItems(body)
	if len(items) != 1 || items[0].(map[string]any)["quantity"].(float64) != 1 {
		t.Fatalf("expected quantity to stay 1, got %v", items)
	}

	status, _ = c.do(http.MethodPost, "/api/cart/checkout", nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("checkout: expected 422, got %d", status)
	}
	if got := c.points(); got != 100 {
		t.Errorf("expected points unchanged at 100, got %d", got)
	}
}

func TestIntegration_CheckoutInsufficientPoints(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.newClient(t)
	c.login("sam@example.com")
	for _, code := range []string{"DUO2024", "SWIRL50", "HAZELNUT", "VANILLA"} {
		if status, body := c.do(http.MethodPost, "/api/redeem", map[string]string{"code": code}); status != http.StatusOK {
			t.Fatalf("redeem %s: expected 200, got %d (%v)", code, status, body)
		}
	}
	if got := c.points(); got != 200 {
		t.Fatalf("expected 200 points, got %d", got)
	}

	c.addToCart("1") // 500

	status, body := c.do(http.MethodPost, "/api/cart/checkout", nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	if body["message"] != "Not enough points!" {
		t.Errorf("unexpected message %v", body["message"])
	}

	_, body = c.do(http.MethodGet, "/api/cart", nil)
	if n := len(cartItems(body)); n != 1 {
		t.Errorf("expected cart to keep 1 line, got %d", n)
	}
	if got := c.points(); got != 200 {
		t.Errorf("expected points unchanged at 200, got %d", got)
	}
}

func TestIntegration_CheckoutSuccess(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.newClient(t)
	c.login("sam@example.com")
	c.do(http.MethodPost, "/api/redeem", map[string]string{"code": "ADMIN1000"})

	c.addToCart("4") // 300
	c.addToCart("4")

	status, body := c.do(http.MethodPost, "/api/cart/checkout", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, body)
	}
	if body["message"] != "Order placed successfully! You will receive an email shortly." {
		t.Errorf("unexpected message %v", body["message"])
	}
	if body["total"].(float64) != 600 {
		t.Errorf("expected total 600, got %v", body["total"])
	}
	if got := c.points(); got != 400 {
		t.Errorf("expected 400 points left, got %d", got)
	}

	_, body = c.do(http.MethodGet, "/api/cart", nil)
	if n := len(cartItems(body)); n != 0 {
		t.Errorf("expected empty cart after checkout, got %d items", n)
	}
}

func TestIntegration_CheckoutFailures(t *testing.T) {
	srv := newTestServer(t, 10)

	t.Run("signed out", func(t *testing.T) {
		c := srv.newClient(t)
		c.addToCart("1")
		status, body := c.do(http.MethodPost, "/api/cart/checkout", nil)
		if status != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", status)
		}
		if body["message"] != "Please login first" {
			t.Errorf("unexpected message %v", body["message"])
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		c := srv.newClient(t)
		c.login("sam@example.com")
		status, body := c.do(http.MethodPost, "/api/cart/checkout", nil)
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", status)
		}
		if body["message"] != "Your cart is empty." {
			t.Errorf("unexpected message %v", body["message"])
		}
	})
}

func TestIntegration_CreateRewardRequiresAdmin(t *testing.T) {
	srv := newTestServer(t, 10)
	reward := map[string]any{"name": "Swirl Cap", "image": "cap.png", "pointsCost": 250, "category": "Clothing"}

	anon := srv.newClient(t)
	if status, _ := anon.do(http.MethodPost, "/api/rewards", reward); status != http.StatusUnauthorized {
		t.Errorf("signed out: expected 401, got %d", status)
	}

	user := srv.newClient(t)
	user.login("sam@example.com")
	if status, _ := user.do(http.MethodPost, "/api/rewards", reward); status != http.StatusForbidden {
		t.Errorf("user: expected 403, got %d", status)
	}

	admin := srv.newClient(t)
	admin.login("admin@duopenotti.com")
	status, body := admin.do(http.MethodPost, "/api/rewards", reward)
	if status != http.StatusCreated {
		t.Fatalf("admin: expected 201, got %d (%v)", status, body)
	}
	created := body["reward"].(map[string]any)
	if created["id"] == "" {
		t.Error("expected a generated id")
	}

	status, _ = admin.do(http.MethodPost, "/api/rewards", map[string]any{"name": "", "pointsCost": 10})
	if status != http.StatusUnprocessableEntity {
		t.Errorf("blank name: expected 422, got %d", status)
	}

	// Every client sees the new reward at the end of the catalog.
	_, body = user.do(http.MethodGet, "/api/rewards", nil)
	rewards := body["rewards"].([]any)
	if len(rewards) != 6 {
		t.Fatalf("expected 6 rewards, got %d", len(rewards))
	}
	if last := rewards[5].(map[string]any); last["name"] != "Swirl Cap" {
		t.Errorf("expected Swirl Cap last, got %v", last["name"])
	}
}

func TestIntegration_FlavorVote(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.newClient(t)

	_, body := c.do(http.MethodGet, "/api/flavors", nil)
	if body["hasVoted"] != false {
		t.Fatalf("expected hasVoted false, got %v", body["hasVoted"])
	}
	if n := len(body["flavors"].([]any)); n != 4 {
		t.Fatalf("expected 4 flavors, got %d", n)
	}

	status, body := c.do(http.MethodPost, "/api/flavors/2/vote", nil)
	if status != http.StatusOK {
		t.Fatalf("vote: expected 200, got %d (%v)", status, body)
	}
	for _, f := range body["flavors"].([]any) {
		flavor := f.(map[string]any)
		if flavor["id"] == "2" && flavor["votes"].(float64) != 86 {
			t.Errorf("expected 86 votes, got %v", flavor["votes"])
		}
	}

	status, _ = c.do(http.MethodPost, "/api/flavors/1/vote", nil)
	if status != http.StatusConflict {
		t.Errorf("second vote: expected 409, got %d", status)
	}

	_, body = c.do(http.MethodGet, "/api/flavors", nil)
	if body["hasVoted"] != true {
		t.Errorf("expected hasVoted true, got %v", body["hasVoted"])
	}

	other := srv.newClient(t)
	if status, _ := other.do(http.MethodPost, "/api/flavors/99/vote", nil); status != http.StatusNotFound {
		t.Errorf("unknown flavor: expected 404, got %d", status)
	}
}

func TestIntegration_EventsStreamsState(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.newClient(t)
	c.login("sam@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	want := []string{"points-balance", "cart-summary", "flavor-results", "cartCount"}
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(resp.Body)
	for len(seen) < len(want) && scanner.Scan() {
		for _, w := range want {
			if strings.Contains(scanner.Text(), w) {
				seen[w] = true
			}
		}
	}
	for _, w := range want {
		if !seen[w] {
			t.Errorf("expected stream to mention %q", w)
		}
	}
}

func TestIntegration_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, 10)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), `swirl_http_request_duration_seconds_count{route="GET /healthz",status="200"}`) {
		t.Error("expected healthz request in metrics output")
	}
}
