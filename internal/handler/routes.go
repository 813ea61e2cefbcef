package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/swirl-rewards/internal/metrics"
	"github.com/msomdec/swirl-rewards/internal/service"
)

// Config carries the dependencies and settings of the HTTP surface.
type Config struct {
	Sessions          *service.SessionRegistry
	Tokens            *service.SessionTokens
	Votes             *service.VoteService
	RedeemLimiter     *service.TokenBucket // per client session
	RedeemAddrLimiter *service.TokenBucket // per client IP
	DB                Pinger

	AdminEmail   string
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, cfg Config) {
	withSession := WithSession(cfg.Tokens, cfg.Sessions, cfg.CookieSecure)

	// handle registers an instrumented route that runs inside the client session.
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, metrics.Instrument(pattern, withSession(h)))
	}

	mux.Handle("GET /healthz", metrics.Instrument("GET /healthz", HandleHealthz(cfg.DB)))
	mux.Handle("GET /metrics", metrics.Handler())

	auth := NewAuthHandler(cfg.AdminEmail)
	handle("POST /api/auth/login", auth.HandleLogin)
	handle("POST /api/auth/signup", auth.HandleSignup)
	handle("POST /api/auth/logout", auth.HandleLogout)
	handle("GET /api/auth/me", auth.HandleMe)

	handle("GET /api/rewards", HandleListRewards)
	handle("POST /api/rewards", HandleCreateReward)

	handle("GET /api/cart", HandleGetCart)
	handle("DELETE /api/cart", HandleClearCart)
	handle("POST /api/cart/items", HandleAddToCart)
	handle("PUT /api/cart/items/{id}", HandleUpdateQuantity)
	handle("DELETE /api/cart/items/{id}", HandleRemoveFromCart)
	handle("POST /api/cart/checkout", HandleCheckout)

	mux.Handle("POST /api/redeem", metrics.Instrument("POST /api/redeem",
		withSession(RateLimit(cfg.RedeemLimiter, cfg.RedeemAddrLimiter, http.HandlerFunc(HandleRedeem)))))

	flavors := NewFlavorHandler(cfg.Votes)
	handle("GET /api/flavors", flavors.HandleList)
	handle("POST /api/flavors/{id}/vote", flavors.HandleVote)

	// Streams are long-lived, so they stay out of the latency histogram.
	events := NewEventsHandler(cfg.Sessions, cfg.Votes, 30*time.Second)
	mux.Handle("GET /api/events", withSession(http.HandlerFunc(events.HandleEvents)))
}
