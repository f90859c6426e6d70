package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/heardle/internal/apperror"
)

func TestAddSong(t *testing.T) {
	svc := NewCatalogService(newFakeSongRepo(), discardLogger())

	song, err := svc.AddSong(context.Background(), SongInput{
		Name:     "  Fumes  ",
		Album:    " vertigo ",
		Link:     "https://cdn.example.com/fumes.mp3",
		Duration: 180,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, song.ID)
	assert.Equal(t, "Fumes", song.Name)
	assert.Equal(t, "vertigo", song.Album)
}

func TestAddSong_Validation(t *testing.T) {
	valid := SongInput{Name: "Fumes", Link: "https://x/f.mp3", Duration: 180}

	tests := []struct {
		name      string
		mutate    func(in *SongInput)
		wantField string
	}{
		{"missing name", func(in *SongInput) { in.Name = " " }, "name"},
		{"long name", func(in *SongInput) { in.Name = strings.Repeat("a", MaxSongNameLength+1) }, "name"},
		{"missing link", func(in *SongInput) { in.Link = "" }, "link"},
		{"relative link", func(in *SongInput) { in.Link = "/audio/f.mp3" }, "link"},
		{"ftp link", func(in *SongInput) { in.Link = "ftp://x/f.mp3" }, "link"},
		{"bad cover", func(in *SongInput) { in.Cover = "not a url" }, "cover"},
		{"shorter than a clip", func(in *SongInput) { in.Duration = 5 }, "duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCatalogService(newFakeSongRepo(), discardLogger())
			in := valid
			tt.mutate(&in)

			_, err := svc.AddSong(context.Background(), in)
			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr), "got %v", err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestAddSong_DuplicateIsConflict(t *testing.T) {
	svc := NewCatalogService(newFakeSongRepo(songFumes), discardLogger())

	_, err := svc.AddSong(context.Background(), SongInput{Name: "Fumes", Link: "https://x/f.mp3", Duration: 100})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestListSongs_SortedIgnoringCase(t *testing.T) {
	svc := NewCatalogService(newFakeSongRepo(), discardLogger())
	ctx := context.Background()
	faker := gofakeit.New(7)

	for i := 0; i < 20; i++ {
		_, err := svc.AddSong(ctx, SongInput{
			Name:     faker.SongName() + " " + faker.LetterN(4),
			Album:    faker.SongArtist(),
			Link:     faker.URL(),
			Duration: faker.IntRange(30, 400),
		})
		require.NoError(t, err)
	}

	songs, err := svc.ListSongs(ctx)
	require.NoError(t, err)
	require.Len(t, songs, 20)
	for i := 1; i < len(songs); i++ {
		assert.LessOrEqual(t, strings.ToLower(songs[i-1].Name), strings.ToLower(songs[i].Name))
	}
}

func TestGetSong(t *testing.T) {
	svc := NewCatalogService(newFakeSongRepo(songFumes), discardLogger())
	ctx := context.Background()

	got, err := svc.GetSong(ctx, songFumes.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fumes", got.Name)

	_, err = svc.GetSong(ctx, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = svc.GetSong(ctx, "")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}
