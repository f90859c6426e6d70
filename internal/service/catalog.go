// Package service holds the business rules of the game.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, enforces rules, orchestrates
//	Repository      → reads/writes storage
//
// Services accept primitives and domain types, never *http.Request, so the
// same rules serve the HTTP API and the heardlectl provisioning CLI. They
// return apperror values and leave status codes to the handler.
//
// Every service depends on repository interfaces, not on the sqlite or
// memory packages; tests inject in-memory fakes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

// MaxSongNameLength bounds catalog entries.
const MaxSongNameLength = 200

// SongInput is what a caller supplies to add a song. ID may be left empty.
type SongInput struct {
	ID       string `json:"id"       yaml:"id"`
	Name     string `json:"name"     yaml:"name"`
	Album    string `json:"album"    yaml:"album"`
	Link     string `json:"link"     yaml:"link"`
	Cover    string `json:"cover"    yaml:"cover"`
	Duration int    `json:"duration" yaml:"duration"`
}

// CatalogService manages the songs players guess from.
type CatalogService struct {
	songs  repository.SongRepository
	logger *slog.Logger
}

func NewCatalogService(songs repository.SongRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{songs: songs, logger: logger}
}

// ListSongs returns the catalog ordered by name, case-insensitively.
func (s *CatalogService) ListSongs(ctx context.Context) ([]model.Song, error) {
	songs, err := s.songs.ListSongs(ctx)
	if err != nil {
		s.logger.Error("failed to list songs", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	return songs, nil
}

// GetSong returns one song or apperror.ErrNotFound.
func (s *CatalogService) GetSong(ctx context.Context, id string) (*model.Song, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("songId", "song ID is required")
	}
	return s.songs.GetSongByID(ctx, id)
}

// AddSong validates and stores a new catalog entry.
//
// A song must be at least one clip long, otherwise no valid start offset
// exists for a puzzle built on it.
func (s *CatalogService) AddSong(ctx context.Context, in SongInput) (*model.Song, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "song name is required")
	}
	if len(name) > MaxSongNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("song name must be %d characters or less", MaxSongNameLength))
	}
	if err := validateURL("link", in.Link, true); err != nil {
		return nil, err
	}
	if err := validateURL("cover", in.Cover, false); err != nil {
		return nil, err
	}
	if in.Duration < model.ClipSeconds {
		return nil, apperror.ValidationFailed("duration",
			fmt.Sprintf("duration must be at least %d seconds", model.ClipSeconds))
	}

	song := &model.Song{
		ID:       strings.TrimSpace(in.ID),
		Name:     name,
		Album:    strings.TrimSpace(in.Album),
		Link:     strings.TrimSpace(in.Link),
		Cover:    strings.TrimSpace(in.Cover),
		Duration: in.Duration,
	}

	if err := s.songs.CreateSong(ctx, song); err != nil {
		s.logger.Error("failed to add song",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("adding song: %w", err)
	}

	s.logger.Info("song added",
		slog.String("id", song.ID),
		slog.String("name", song.Name),
	)
	return song, nil
}

// validateURL accepts absolute http(s) URLs. An empty optional value passes.
func validateURL(field, raw string, required bool) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return apperror.ValidationFailed(field, field+" is required")
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.ValidationFailed(field, field+" must be an absolute http(s) URL")
	}
	return nil
}
