package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmattila/trackwise/internal/conf"
	"github.com/rmattila/trackwise/internal/datastore"
	"github.com/rmattila/trackwise/internal/enrich"
	"github.com/rmattila/trackwise/internal/ingest"
	"github.com/rmattila/trackwise/internal/lastfm"
	"github.com/rmattila/trackwise/internal/recommend"
	"github.com/rmattila/trackwise/internal/spotify"
	"github.com/rmattila/trackwise/internal/spotify/spotifytest"
)

type staticMetadataClient struct{}

func (staticMetadataClient) TrackInfo(_ context.Context, artist, track string) (*lastfm.TrackInfo, error) {
	return &lastfm.TrackInfo{
		Name:      track,
		Artist:    artist,
		Listeners: 100,
		Playcount: 500,
		Tags:      []string{"rock"},
	}, nil
}

func (staticMetadataClient) SimilarTracks(context.Context, string, string, int) ([]lastfm.SimilarTrack, error) {
	return nil, nil
}

// The stages chained over one store: three plays are collected and
// enriched, the local candidate pool then equals the user's own top set,
// so the engine falls through to the provider's top tracks.
func TestStagesFallThroughToTopTracks(t *testing.T) {
	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = t.TempDir() + "/test.db"

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	now := time.Now()
	client := &spotifytest.Fake{
		RecentlyPlayedFunc: func(context.Context, int) ([]spotify.PlayedItem, error) {
			return []spotify.PlayedItem{
				{Track: spotify.Track{ID: "sp-1", Name: "One", Artist: "A"}, PlayedAt: now},
				{Track: spotify.Track{ID: "sp-2", Name: "Two", Artist: "B"}, PlayedAt: now.Add(-time.Hour)},
				{Track: spotify.Track{ID: "sp-3", Name: "Three", Artist: "C"}, PlayedAt: now.Add(-2 * time.Hour)},
			}, nil
		},
		TopTracksFunc: func(_ context.Context, timeRange spotify.TimeRange, _ int) ([]spotify.Track, error) {
			if timeRange != spotify.RangeShortTerm {
				return nil, nil
			}
			return []spotify.Track{{ID: "sp-fresh", Name: "Fresh", Artist: "D"}}, nil
		},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ingestor := ingest.New(store, client, 50, log)
	enricher := enrich.New(store, staticMetadataClient{}, 50, 10, 0, log)
	engine := recommend.NewEngine(store, client, recommend.DefaultConfig(), log)

	user, err := ingestor.EnsureUser(context.Background())
	require.NoError(t, err)

	stages := []Stage{
		{Name: "collect", Run: func(ctx context.Context) error {
			_, err := ingestor.Run(ctx)
			return err
		}},
		{Name: "enrich", Run: func(ctx context.Context) error {
			_, err := enricher.Run(ctx)
			return err
		}},
		{Name: "recommend", Run: func(ctx context.Context) error {
			_, err := engine.Generate(ctx, user.ID)
			return err
		}},
	}
	require.NoError(t, NewRunner(stages, log).Run(context.Background()))

	// All three plays were enriched.
	pending, err := store.TracksWithoutMetadata(50)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// The only recommendation came from the provider fallback.
	recs, err := store.RecentRecommendations(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, string(recommend.SourceTopTracks), recs[0].Source)
	assert.GreaterOrEqual(t, recs[0].Rating, recommend.RatingFloor)
	assert.Less(t, recs[0].Rating, recommend.RatingCeil)

	track, err := store.GetTrackByID(recs[0].TrackID)
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.Equal(t, "sp-fresh", track.SpotifyID)
}
