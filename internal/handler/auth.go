package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/auth"
	"github.com/sakif/heardle/internal/service"
)

const stateCookie = "oauth_state"

// DiscordAuthenticator is the part of auth.DiscordProvider the login flow
// needs.
type DiscordAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.DiscordUser, error)
}

// AuthHandler runs the Discord OAuth login flow and session cookies.
//
//   - HandleDiscordLogin    → redirect the browser to Discord's consent page
//   - HandleDiscordCallback → exchange the code, upsert the user, set the JWT cookie
//   - HandleLogout          → clear the JWT cookie
//   - HandleMe              → the signed-in user's profile
//
// discord is nil when no client credentials are configured; the login
// routes then answer 503 and everyone plays as a guest.
type AuthHandler struct {
	discord       DiscordAuthenticator
	auth          *service.AuthService
	publicURL     string
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(
	discord DiscordAuthenticator,
	authService *service.AuthService,
	publicURL string,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		discord:       discord,
		auth:          authService,
		publicURL:     strings.TrimRight(publicURL, "/"),
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (h *AuthHandler) home(query string) string {
	return h.publicURL + "/" + query
}

// HandleDiscordLogin redirects to Discord with a random state value that is
// also stored in a short-lived cookie. The callback only proceeds when the
// two match, which ties the callback to a login this browser started.
//
// HTTP: GET /auth/discord/login
func (h *AuthHandler) HandleDiscordLogin(w http.ResponseWriter, r *http.Request) {
	if h.discord == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "Discord sign-in is not configured",
		})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.discord.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleDiscordCallback completes the login.
//
// HTTP: GET /auth/discord/callback?code=xxx&state=yyy
//
//  1. Check the state against the cookie
//  2. Exchange the code for the Discord profile
//  3. Upsert the user and issue a session token
//  4. Set the token cookie and redirect home
func (h *AuthHandler) HandleDiscordCallback(w http.ResponseWriter, r *http.Request) {
	if h.discord == nil {
		http.Error(w, "Discord sign-in is not configured", http.StatusServiceUnavailable)
		return
	}

	// --- Step 1: CSRF state ---
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	if q.Get("state") != c.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, h.home("?auth=denied"), http.StatusSeeOther)
		return
	}

	// --- Step 2: exchange ---
	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	du, err := h.discord.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: Discord exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	// --- Step 3: upsert + token ---
	result, err := h.auth.LoginWithDiscord(r.Context(), du)
	if err != nil {
		h.logger.Error("auth callback: login failed",
			slog.String("discordID", du.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// --- Step 4: cookie + redirect ---
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   h.auth.TokenTTL(),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.home(""), http.StatusSeeOther)
}

// HandleLogout deletes the session cookie. Guest rounds are unaffected:
// the guest cookie is left alone.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the signed-in user's profile.
//
// HTTP: GET /api/me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		// A valid token for a deleted user is treated as signed out.
		if errors.Is(err, apperror.ErrNotFound) {
			writeUnauthorized(w)
			return
		}
		h.logger.Error("HandleMe: loading user failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
