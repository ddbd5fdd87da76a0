// Package ingest pulls recently-played events from the streaming API into
// the listening-history aggregate.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rmattila/trackwise/internal/datastore"
	"github.com/rmattila/trackwise/internal/spotify"
)

// Result reports what one collection run did.
type Result struct {
	New     int // history rows created
	Updated int // history rows whose play count was incremented
	Skipped int // events dropped because of per-track errors
}

// Ingestor collects one page of listening history per run.
type Ingestor struct {
	store  datastore.Interface
	client spotify.Client
	limit  int
	log    *slog.Logger
}

// New creates an Ingestor. limit caps the recently-played page size.
func New(store datastore.Interface, client spotify.Client, limit int, log *slog.Logger) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{store: store, client: client, limit: limit, log: log.With("service", "ingest")}
}

// EnsureUser resolves the authenticated provider account to a local user
// row, creating it on first sight.
func (i *Ingestor) EnsureUser(ctx context.Context) (*datastore.User, error) {
	current, err := i.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}

	user, err := i.store.GetUserBySpotifyID(current.ID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &datastore.User{
		SpotifyID:   current.ID,
		DisplayName: current.DisplayName,
	}
	if err := i.store.CreateUser(user); err != nil {
		return nil, err
	}
	i.log.Info("created user", "spotify_id", current.ID, "display_name", current.DisplayName)
	return user, nil
}

// Run fetches one page of recently-played events and folds each one into
// the listening-history aggregate. Per-event failures are logged and
// skipped, the loop continues.
func (i *Ingestor) Run(ctx context.Context) (Result, error) {
	var result Result

	user, err := i.EnsureUser(ctx)
	if err != nil {
		return result, err
	}

	items, err := i.client.RecentlyPlayed(ctx, i.limit)
	if err != nil {
		return result, fmt.Errorf("fetching recently played: %w", err)
	}
	i.log.Info("fetched recently played", "count", len(items))

	for _, item := range items {
		updated, err := i.recordPlay(user.ID, &item)
		if err != nil {
			i.log.Error("skipping track",
				"track", item.Track.Name,
				"artist", item.Track.Artist,
				"error", err)
			result.Skipped++
			continue
		}
		if updated {
			result.Updated++
		} else {
			result.New++
		}
	}

	i.log.Info("collection complete", "new", result.New, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

// recordPlay upserts the track row and folds one play event into the
// (user, track) history aggregate. Returns true when an existing row was
// updated. The last played timestamp is overwritten with the observed
// value even when it is older than the stored one.
func (i *Ingestor) recordPlay(userID uint, item *spotify.PlayedItem) (bool, error) {
	trackID, err := i.store.GetOrCreateTrack(
		item.Track.ID, item.Track.Name, item.Track.Artist,
		item.Track.DurationMS, item.Track.Popularity)
	if err != nil {
		return false, err
	}

	history, err := i.store.GetListeningHistory(userID, trackID)
	if err != nil {
		return false, err
	}

	if history != nil {
		history.PlayCount++
		history.LastPlayedAt = item.PlayedAt
		return true, i.store.UpdateListeningHistory(history)
	}

	history = &datastore.ListeningHistory{
		UserID:        userID,
		TrackID:       trackID,
		FirstPlayedAt: item.PlayedAt,
		LastPlayedAt:  item.PlayedAt,
		PlayCount:     1,
	}
	return false, i.store.CreateListeningHistory(history)
}
