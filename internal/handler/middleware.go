package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/msomdec/swirl-rewards/internal/service"
)

// SessionCookieName is the cookie that carries the signed client session id.
const SessionCookieName = "duo_session"

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the client session attached by WithSession.
// Returns nil outside of a session-wrapped route.
func SessionFromContext(ctx context.Context) *service.Session {
	s, _ := ctx.Value(sessionContextKey).(*service.Session)
	return s
}

// WithSession attaches the client session to every request. Requests without
// a valid duo_session cookie get a fresh session id and a new cookie.
func WithSession(tokens *service.SessionTokens, sessions *service.SessionRegistry, cookieSecure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionIDFromCookie(r, tokens)
			if id == "" {
				id = uuid.NewString()
				token, err := tokens.Issue(id)
				if err != nil {
					slog.Error("issue session token", "error", err)
					writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   cookieSecure,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(tokens.TTL().Seconds()),
				})
			}

			s := sessions.Get(r.Context(), id)
			ctx := context.WithValue(r.Context(), sessionContextKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionIDFromCookie(r *http.Request, tokens *service.SessionTokens) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	id, err := tokens.Validate(cookie.Value)
	if err != nil {
		return ""
	}
	return id
}

// SecurityHeaders sets conservative browser security headers on every
// response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https://placehold.co")
		next.ServeHTTP(w, r)
	})
}

// RateLimit rejects requests with 429 once either the client address or
// the client session has used up its tokens. Keying on the address too
// stops a client from getting a fresh bucket by dropping its cookie. It
// must run inside WithSession.
func RateLimit(perSession, perAddr *service.TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed := perAddr.Allow(clientAddr(r))
		if s := SessionFromContext(r.Context()); s != nil && allowed {
			allowed = perSession.Allow(s.ID)
		}
		if !allowed {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr returns the remote IP without the port, which changes with
// every connection.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
