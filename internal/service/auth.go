package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/heardle/internal/auth"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

// AuthService turns a Discord identity into a local user and a session.
//
//	AuthHandler → AuthService → UserRepository
//	                          ↘ TokenService
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// AuthResult bundles the user and the issued token so the handler can set
// the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginWithDiscord upserts the user keyed by Discord ID and issues a session
// token. A returning player keeps their internal ID, and with it their
// guesses and statistics.
func (s *AuthService) LoginWithDiscord(ctx context.Context, du *auth.DiscordUser) (*AuthResult, error) {
	if du == nil {
		return nil, fmt.Errorf("service/auth: Discord user must not be nil")
	}

	user := &model.User{
		DiscordID: du.ID,
		Name:      du.DisplayName(),
		AvatarURL: du.AvatarURL(),
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (discordID=%s): %w", du.ID, err)
	}

	s.logger.Info("user authenticated via Discord",
		slog.String("userID", user.ID),
		slog.String("name", user.Name),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID backs GET /api/me.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// TokenTTL is the session lifetime, used for the cookie's Max-Age.
func (s *AuthService) TokenTTL() int {
	return int(s.tokens.TTL().Seconds())
}
