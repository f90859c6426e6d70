package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Discord's OAuth2 endpoints. x/oauth2 ships no discord package.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const discordUserURL = "https://discord.com/api/users/@me"

// DiscordUser is the part of GET /users/@me we keep.
//
// API docs: https://discord.com/developers/docs/resources/user#user-object
type DiscordUser struct {
	ID         string `json:"id"`          // Snowflake, sent as a string
	Username   string `json:"username"`    // Unique handle
	GlobalName string `json:"global_name"` // Display name, may be empty
	Avatar     string `json:"avatar"`      // Avatar hash, may be empty
}

// DisplayName prefers the display name over the handle.
func (u *DiscordUser) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// AvatarURL builds the CDN URL for the avatar, or "" when none is set.
func (u *DiscordUser) AvatarURL() string {
	if u.Avatar == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", u.ID, u.Avatar)
}

// DiscordProvider runs the Authorization Code flow against Discord.
// The code-for-token exchange is server to server, so the access token
// never reaches the browser.
type DiscordProvider struct {
	config  *oauth2.Config
	userURL string
}

// NewDiscordProvider creates a provider for a Discord application.
// callbackURL must match a redirect registered in the developer portal,
// e.g. "http://localhost:8080/auth/discord/callback".
//
// Only the "identify" scope is requested: id, username and avatar.
func NewDiscordProvider(clientID, clientSecret, callbackURL string) *DiscordProvider {
	return newDiscordProvider(clientID, clientSecret, callbackURL, discordEndpoint, discordUserURL)
}

func newDiscordProvider(clientID, clientSecret, callbackURL string, endpoint oauth2.Endpoint, userURL string) *DiscordProvider {
	return &DiscordProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"identify"},
			Endpoint:     endpoint,
		},
		userURL: userURL,
	}
}

// AuthURL returns the Discord consent URL. state must also be stored in a
// cookie and compared on callback to stop login CSRF.
func (p *DiscordProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the Discord profile.
func (p *DiscordProvider) Exchange(ctx context.Context, code string) (*DiscordUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// The returned client adds "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, oauthToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building Discord user request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Discord /users/@me: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Discord /users/@me returned status %d", resp.StatusCode)
	}

	var user DiscordUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth: decoding Discord user: %w", err)
	}

	if user.ID == "" {
		return nil, fmt.Errorf("auth: Discord returned a user without an id")
	}

	return &user, nil
}
