// Package spotifytest provides a configurable fake of the streaming-API
// client for tests.
package spotifytest

import (
	"context"

	"github.com/rmattila/trackwise/internal/spotify"
)

// Fake implements spotify.Client through optional function fields. Nil
// fields behave as "no data": empty results and no error.
type Fake struct {
	CurrentUserFunc               func(ctx context.Context) (*spotify.User, error)
	RecentlyPlayedFunc            func(ctx context.Context, limit int) ([]spotify.PlayedItem, error)
	TopTracksFunc                 func(ctx context.Context, timeRange spotify.TimeRange, limit int) ([]spotify.Track, error)
	TrackFunc                     func(ctx context.Context, id string) (*spotify.Track, error)
	SearchTrackFunc               func(ctx context.Context, name, artist string) (*spotify.Track, error)
	UserPlaylistsFunc             func(ctx context.Context, userID string) ([]spotify.Playlist, error)
	CreatePlaylistFunc            func(ctx context.Context, userID, name, description string, public bool) (*spotify.Playlist, error)
	ReplacePlaylistTracksFunc     func(ctx context.Context, playlistID string, trackIDs []string) error
	ChangePlaylistDescriptionFunc func(ctx context.Context, playlistID, description string) error
	UploadPlaylistCoverFunc       func(ctx context.Context, playlistID string, jpegData []byte) error
	GenreSeedsFunc                func(ctx context.Context) ([]string, error)
	RecommendationsFunc           func(ctx context.Context, seedGenres []string, limit int) ([]spotify.Track, error)
	NewReleasesFunc               func(ctx context.Context, limit int) ([]spotify.Album, error)
	AlbumTracksFunc               func(ctx context.Context, albumID string) ([]spotify.Track, error)
}

var _ spotify.Client = (*Fake)(nil)

func (f *Fake) CurrentUser(ctx context.Context) (*spotify.User, error) {
	if f.CurrentUserFunc == nil {
		return &spotify.User{ID: "test-user", DisplayName: "Test User"}, nil
	}
	return f.CurrentUserFunc(ctx)
}

func (f *Fake) RecentlyPlayed(ctx context.Context, limit int) ([]spotify.PlayedItem, error) {
	if f.RecentlyPlayedFunc == nil {
		return nil, nil
	}
	return f.RecentlyPlayedFunc(ctx, limit)
}

func (f *Fake) TopTracks(ctx context.Context, timeRange spotify.TimeRange, limit int) ([]spotify.Track, error) {
	if f.TopTracksFunc == nil {
		return nil, nil
	}
	return f.TopTracksFunc(ctx, timeRange, limit)
}

func (f *Fake) Track(ctx context.Context, id string) (*spotify.Track, error) {
	if f.TrackFunc == nil {
		return &spotify.Track{ID: id, Name: "Track " + id, Artist: "Artist"}, nil
	}
	return f.TrackFunc(ctx, id)
}

func (f *Fake) SearchTrack(ctx context.Context, name, artist string) (*spotify.Track, error) {
	if f.SearchTrackFunc == nil {
		return nil, nil
	}
	return f.SearchTrackFunc(ctx, name, artist)
}

func (f *Fake) UserPlaylists(ctx context.Context, userID string) ([]spotify.Playlist, error) {
	if f.UserPlaylistsFunc == nil {
		return nil, nil
	}
	return f.UserPlaylistsFunc(ctx, userID)
}

func (f *Fake) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*spotify.Playlist, error) {
	if f.CreatePlaylistFunc == nil {
		return &spotify.Playlist{ID: "playlist-1", Name: name, Description: description}, nil
	}
	return f.CreatePlaylistFunc(ctx, userID, name, description, public)
}

func (f *Fake) ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if f.ReplacePlaylistTracksFunc == nil {
		return nil
	}
	return f.ReplacePlaylistTracksFunc(ctx, playlistID, trackIDs)
}

func (f *Fake) ChangePlaylistDescription(ctx context.Context, playlistID, description string) error {
	if f.ChangePlaylistDescriptionFunc == nil {
		return nil
	}
	return f.ChangePlaylistDescriptionFunc(ctx, playlistID, description)
}

func (f *Fake) UploadPlaylistCover(ctx context.Context, playlistID string, jpegData []byte) error {
	if f.UploadPlaylistCoverFunc == nil {
		return nil
	}
	return f.UploadPlaylistCoverFunc(ctx, playlistID, jpegData)
}

func (f *Fake) GenreSeeds(ctx context.Context) ([]string, error) {
	if f.GenreSeedsFunc == nil {
		return nil, nil
	}
	return f.GenreSeedsFunc(ctx)
}

func (f *Fake) Recommendations(ctx context.Context, seedGenres []string, limit int) ([]spotify.Track, error) {
	if f.RecommendationsFunc == nil {
		return nil, nil
	}
	return f.RecommendationsFunc(ctx, seedGenres, limit)
}

func (f *Fake) NewReleases(ctx context.Context, limit int) ([]spotify.Album, error) {
	if f.NewReleasesFunc == nil {
		return nil, nil
	}
	return f.NewReleasesFunc(ctx, limit)
}

func (f *Fake) AlbumTracks(ctx context.Context, albumID string) ([]spotify.Track, error) {
	if f.AlbumTracksFunc == nil {
		return nil, nil
	}
	return f.AlbumTracksFunc(ctx, albumID)
}
