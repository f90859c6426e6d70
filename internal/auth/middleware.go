package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/heardle/internal/model"
)

// Cookie names.
const (
	TokenCookie = "token"
	GuestCookie = "player_id"
)

// guestCookieTTL keeps a guest's identity across visits for a year.
const guestCookieTTL = 365 * 24 * time.Hour

// contextKey is unexported so no other package can read or shadow our values.
type contextKey string

const (
	userIDKey contextKey = "userID"
	playerKey contextKey = "player"
)

const unauthorizedBody = `{"error":"unauthorized","message":"valid authentication required"}`

// RequireAuth rejects requests without a valid session with 401 and stores
// the userID in the context for the rest.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, unauthorizedBody)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth stores the userID when a valid session is present and lets
// anonymous requests through untouched.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ResolvePlayer attaches a model.Player to every request.
//
// A valid session makes the player a signed-in user. Otherwise the guest
// cookie is used, and a fresh one is issued when it is missing or malformed.
// Guests can therefore play without ever touching the OAuth flow.
func ResolvePlayer(tokens *TokenService, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var player model.Player

			if userID, err := extractUserID(r, tokens); err == nil {
				player = model.Player{ID: userID}
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			} else {
				player = model.Player{ID: guestID(w, r, secureCookies), Guest: true}
			}

			ctx := context.WithValue(r.Context(), playerKey, player)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminKey guards provisioning routes with the X-Admin-Key header.
// A nil key means provisioning over HTTP is disabled and every request
// is refused.
func RequireAdminKey(key *AdminKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(AdminKeyHeader)
			if key == nil || presented == "" || key.Verify(presented) != nil {
				writeJSONError(w, http.StatusForbidden, `{"error":"forbidden","message":"a valid admin key is required"}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the signed-in user's ID, or ("", false) for
// anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// PlayerFromContext returns the player set by ResolvePlayer.
func PlayerFromContext(ctx context.Context) (model.Player, bool) {
	p, ok := ctx.Value(playerKey).(model.Player)
	return p, ok && p.ID != ""
}

// WithPlayer returns a context carrying p. Handler tests use it to skip
// the cookie dance.
func WithPlayer(ctx context.Context, p model.Player) context.Context {
	if !p.Guest {
		ctx = context.WithValue(ctx, userIDKey, p.ID)
	}
	return context.WithValue(ctx, playerKey, p)
}

func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}

// guestID reads the guest cookie or mints a new uuid and sets it.
func guestID(w http.ResponseWriter, r *http.Request, secure bool) string {
	if c, err := r.Cookie(GuestCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     GuestCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(guestCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func writeJSONError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
