// Package spotify wraps the streaming-API SDK behind the narrow client
// interface the pipeline stages depend on, so tests can substitute fakes.
package spotify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	spotifyapi "github.com/zmb3/spotify/v2"
)

// Client is the streaming-API capability set required by the pipeline.
type Client interface {
	CurrentUser(ctx context.Context) (*User, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]PlayedItem, error)
	TopTracks(ctx context.Context, timeRange TimeRange, limit int) ([]Track, error)
	Track(ctx context.Context, id string) (*Track, error)
	SearchTrack(ctx context.Context, name, artist string) (*Track, error)
	UserPlaylists(ctx context.Context, userID string) ([]Playlist, error)
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*Playlist, error)
	ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error
	ChangePlaylistDescription(ctx context.Context, playlistID, description string) error
	UploadPlaylistCover(ctx context.Context, playlistID string, jpegData []byte) error
	GenreSeeds(ctx context.Context) ([]string, error)
	Recommendations(ctx context.Context, seedGenres []string, limit int) ([]Track, error)
	NewReleases(ctx context.Context, limit int) ([]Album, error)
	AlbumTracks(ctx context.Context, albumID string) ([]Track, error)
}

// apiClient implements Client on top of the zmb3 SDK. The authenticated
// http.Client is kept for the one endpoint the SDK does not cover
// (playlist cover upload).
type apiClient struct {
	api  *spotifyapi.Client
	http *http.Client
}

// NewClient wraps an authenticated SDK client. httpClient must carry the
// same OAuth transport, it is used for the raw cover-upload PUT.
func NewClient(api *spotifyapi.Client, httpClient *http.Client) Client {
	return &apiClient{api: api, http: httpClient}
}

func (c *apiClient) CurrentUser(ctx context.Context) (*User, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}
	return &User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

func (c *apiClient) RecentlyPlayed(ctx context.Context, limit int) ([]PlayedItem, error) {
	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotifyapi.RecentlyPlayedOptions{Limit: spotifyapi.Numeric(limit)})
	if err != nil {
		return nil, fmt.Errorf("getting recently played: %w", err)
	}
	played := make([]PlayedItem, 0, len(items))
	for i := range items {
		played = append(played, PlayedItem{
			Track:    fromSimpleTrack(&items[i].Track),
			PlayedAt: items[i].PlayedAt,
		})
	}
	return played, nil
}

func (c *apiClient) TopTracks(ctx context.Context, timeRange TimeRange, limit int) ([]Track, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx,
		spotifyapi.Timerange(spotifyapi.Range(timeRange)),
		spotifyapi.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("getting top tracks (%s): %w", timeRange, err)
	}
	tracks := make([]Track, 0, len(page.Tracks))
	for i := range page.Tracks {
		tracks = append(tracks, fromFullTrack(&page.Tracks[i]))
	}
	return tracks, nil
}

func (c *apiClient) Track(ctx context.Context, id string) (*Track, error) {
	full, err := c.api.GetTrack(ctx, spotifyapi.ID(id))
	if err != nil {
		return nil, fmt.Errorf("getting track %s: %w", id, err)
	}
	track := fromFullTrack(full)
	return &track, nil
}

func (c *apiClient) SearchTrack(ctx context.Context, name, artist string) (*Track, error) {
	query := fmt.Sprintf("track:%q artist:%q", name, artist)
	result, err := c.api.Search(ctx, query, spotifyapi.SearchTypeTrack, spotifyapi.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("searching for %s by %s: %w", name, artist, err)
	}
	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return nil, nil
	}
	track := fromFullTrack(&result.Tracks.Tracks[0])
	return &track, nil
}

func (c *apiClient) UserPlaylists(ctx context.Context, userID string) ([]Playlist, error) {
	page, err := c.api.GetPlaylistsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting playlists for user %s: %w", userID, err)
	}
	playlists := make([]Playlist, 0, len(page.Playlists))
	for i := range page.Playlists {
		p := &page.Playlists[i]
		playlists = append(playlists, Playlist{
			ID:          p.ID.String(),
			Name:        p.Name,
			Description: p.Description,
		})
	}
	return playlists, nil
}

func (c *apiClient) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*Playlist, error) {
	playlist, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, fmt.Errorf("creating playlist %s: %w", name, err)
	}
	return &Playlist{
		ID:          playlist.ID.String(),
		Name:        playlist.Name,
		Description: playlist.Description,
	}, nil
}

func (c *apiClient) ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	ids := make([]spotifyapi.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotifyapi.ID(id)
	}
	if err := c.api.ReplacePlaylistTracks(ctx, spotifyapi.ID(playlistID), ids...); err != nil {
		return fmt.Errorf("replacing playlist %s tracks: %w", playlistID, err)
	}
	return nil
}

func (c *apiClient) ChangePlaylistDescription(ctx context.Context, playlistID, description string) error {
	if err := c.api.ChangePlaylistDescription(ctx, spotifyapi.ID(playlistID), description); err != nil {
		return fmt.Errorf("changing playlist %s description: %w", playlistID, err)
	}
	return nil
}

// UploadPlaylistCover uploads a base64 encoded JPEG as the playlist cover.
// The SDK has no binding for this endpoint, so the authenticated transport
// is used directly. The API answers 202 Accepted on success.
func (c *apiClient) UploadPlaylistCover(ctx context.Context, playlistID string, jpegData []byte) error {
	url := fmt.Sprintf("https://api.spotify.com/v1/playlists/%s/images", playlistID)
	body := base64.StdEncoding.EncodeToString(jpegData)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating cover upload request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("uploading playlist cover: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("cover upload returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *apiClient) GenreSeeds(ctx context.Context) ([]string, error) {
	genres, err := c.api.GetAvailableGenreSeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting genre seeds: %w", err)
	}
	return genres, nil
}

func (c *apiClient) Recommendations(ctx context.Context, seedGenres []string, limit int) ([]Track, error) {
	seeds := spotifyapi.Seeds{Genres: seedGenres}
	recs, err := c.api.GetRecommendations(ctx, seeds, nil, spotifyapi.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("getting recommendations: %w", err)
	}
	tracks := make([]Track, 0, len(recs.Tracks))
	for i := range recs.Tracks {
		tracks = append(tracks, fromSimpleTrack(&recs.Tracks[i]))
	}
	return tracks, nil
}

func (c *apiClient) NewReleases(ctx context.Context, limit int) ([]Album, error) {
	page, err := c.api.NewReleases(ctx, spotifyapi.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("getting new releases: %w", err)
	}
	albums := make([]Album, 0, len(page.Albums))
	for i := range page.Albums {
		albums = append(albums, Album{ID: page.Albums[i].ID.String(), Name: page.Albums[i].Name})
	}
	return albums, nil
}

func (c *apiClient) AlbumTracks(ctx context.Context, albumID string) ([]Track, error) {
	page, err := c.api.GetAlbumTracks(ctx, spotifyapi.ID(albumID))
	if err != nil {
		return nil, fmt.Errorf("getting album %s tracks: %w", albumID, err)
	}
	tracks := make([]Track, 0, len(page.Tracks))
	for i := range page.Tracks {
		tracks = append(tracks, fromSimpleTrack(&page.Tracks[i]))
	}
	return tracks, nil
}

// fromSimpleTrack maps the SDK's simple track object. Simple tracks carry
// no popularity, so tracks first seen through recently-played are stored
// with popularity zero and never refreshed.
func fromSimpleTrack(t *spotifyapi.SimpleTrack) Track {
	return Track{
		ID:         t.ID.String(),
		Name:       t.Name,
		Artist:     firstArtist(t.Artists),
		DurationMS: int(t.Duration),
	}
}

func fromFullTrack(t *spotifyapi.FullTrack) Track {
	track := fromSimpleTrack(&t.SimpleTrack)
	track.Popularity = int(t.Popularity)
	return track
}

func firstArtist(artists []spotifyapi.SimpleArtist) string {
	if len(artists) == 0 {
		return ""
	}
	return artists[0].Name
}
