// Package publish reconciles the recommendation playlist on the
// streaming service.
package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rmattila/trackwise/internal/datastore"
	"github.com/rmattila/trackwise/internal/spotify"
)

// Publisher mirrors stored recommendations into a provider playlist.
type Publisher struct {
	store  datastore.Interface
	client spotify.Client
	log    *slog.Logger
}

// New creates a Publisher.
func New(store datastore.Interface, client spotify.Client, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{store: store, client: client, log: log.With("service", "publish")}
}

// GetOrCreatePlaylist finds the current user's playlist by name, creating
// a public one when absent. An existing playlist's description is updated
// only when it differs.
func (p *Publisher) GetOrCreatePlaylist(ctx context.Context, name, description string) (*spotify.Playlist, error) {
	user, err := p.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}

	playlists, err := p.client.UserPlaylists(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}

	for i := range playlists {
		if playlists[i].Name != name {
			continue
		}
		p.log.Info("found existing playlist", "name", name, "id", playlists[i].ID)
		if description != "" && playlists[i].Description != description {
			if err := p.client.ChangePlaylistDescription(ctx, playlists[i].ID, description); err != nil {
				p.log.Error("updating playlist description failed", "id", playlists[i].ID, "error", err)
			}
		}
		return &playlists[i], nil
	}

	p.log.Info("creating playlist", "name", name)
	playlist, err := p.client.CreatePlaylist(ctx, user.ID, name, description, true)
	if err != nil {
		return nil, fmt.Errorf("creating playlist %s: %w", name, err)
	}
	return playlist, nil
}

// SyncTracks replaces the playlist's track list with the user's newest
// recommendations, falling back to recent listening history when no
// recommendations exist. With neither, the playlist is left untouched.
// Returns the number of tracks placed in the playlist.
func (p *Publisher) SyncTracks(ctx context.Context, playlistID string, userID uint, limit int) (int, error) {
	trackIDs, err := p.recommendationTrackIDs(userID, limit)
	if err != nil {
		return 0, err
	}

	if len(trackIDs) == 0 {
		p.log.Info("no recommendations found, falling back to listening history")
		trackIDs, err = p.historyTrackIDs(userID, limit)
		if err != nil {
			return 0, err
		}
	}

	if len(trackIDs) == 0 {
		p.log.Info("no tracks to sync, playlist left untouched")
		return 0, nil
	}

	if err := p.client.ReplacePlaylistTracks(ctx, playlistID, trackIDs); err != nil {
		return 0, err
	}
	p.log.Info("playlist synced", "playlist_id", playlistID, "tracks", len(trackIDs))
	return len(trackIDs), nil
}

// SetCoverImage loads a local image, shrinks it into the provider's byte
// budget and uploads it as the playlist cover.
func (p *Publisher) SetCoverImage(ctx context.Context, playlistID, imagePath string) error {
	img, err := LoadCoverImage(imagePath)
	if err != nil {
		return err
	}

	data, err := FitCoverImage(img)
	if err != nil {
		return fmt.Errorf("fitting cover image: %w", err)
	}

	if err := p.client.UploadPlaylistCover(ctx, playlistID, data); err != nil {
		return fmt.Errorf("uploading cover image: %w", err)
	}
	p.log.Info("playlist cover set", "playlist_id", playlistID, "bytes", len(data))
	return nil
}

// recommendationTrackIDs resolves the user's newest recommendations to
// provider track ids, skipping rows whose track cannot be resolved.
func (p *Publisher) recommendationTrackIDs(userID uint, limit int) ([]string, error) {
	recs, err := p.store.RecentRecommendations(userID, limit)
	if err != nil {
		return nil, err
	}

	var ids []string
	for i := range recs {
		track, err := p.store.GetTrackByID(recs[i].TrackID)
		if err != nil {
			return nil, err
		}
		if track == nil {
			p.log.Warn("recommendation references missing track", "track_id", recs[i].TrackID)
			continue
		}
		ids = append(ids, track.SpotifyID)
	}
	return ids, nil
}

// historyTrackIDs resolves the user's most recent plays to provider
// track ids.
func (p *Publisher) historyTrackIDs(userID uint, limit int) ([]string, error) {
	history, err := p.store.RecentHistory(userID, limit)
	if err != nil {
		return nil, err
	}

	var ids []string
	for i := range history {
		track, err := p.store.GetTrackByID(history[i].TrackID)
		if err != nil {
			return nil, err
		}
		if track == nil {
			continue
		}
		ids = append(ids, track.SpotifyID)
	}
	return ids, nil
}
