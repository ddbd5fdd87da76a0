package recommend

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/rmattila/trackwise/internal/conf"
	"github.com/rmattila/trackwise/internal/datastore"
	"github.com/rmattila/trackwise/internal/spotify"
	"github.com/rmattila/trackwise/internal/spotify/spotifytest"
)

func createStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = t.TempDir() + "/test.db"

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store datastore.Interface) uint {
	t.Helper()
	user := &datastore.User{SpotifyID: "user-1", DisplayName: "Listener"}
	require.NoError(t, store.CreateUser(user))
	return user.ID
}

// seedTrack inserts a track with history and optional metadata tags.
func seedTrack(t *testing.T, store datastore.Interface, userID uint, spotifyID string, playCount int, tags []string) uint {
	t.Helper()
	trackID, err := store.GetOrCreateTrack(spotifyID, "Track "+spotifyID, "Artist "+spotifyID, 200000, 50)
	require.NoError(t, err)

	if playCount > 0 {
		require.NoError(t, store.CreateListeningHistory(&datastore.ListeningHistory{
			UserID:        userID,
			TrackID:       trackID,
			FirstPlayedAt: time.Now(),
			LastPlayedAt:  time.Now(),
			PlayCount:     playCount,
		}))
	}
	if tags != nil {
		require.NoError(t, store.CreateTrackMetadata(&datastore.TrackMetadata{
			TrackID: trackID,
			Tags:    datatypes.JSONSlice[string](tags),
		}))
	}
	return trackID
}

func newTestEngine(store datastore.Interface, client spotify.Client, count int) *Engine {
	config := DefaultConfig()
	config.Count = count
	return NewEngine(store, client, config, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFavoriteTags(t *testing.T) {
	metadata := []datastore.TrackMetadata{
		{Tags: datatypes.JSONSlice[string]{"rock", "indie"}},
		{Tags: datatypes.JSONSlice[string]{"rock", "pop"}},
	}

	tags := favoriteTags(metadata, 5)
	require.NotEmpty(t, tags)
	assert.Equal(t, "rock", tags[0], "The tag shared by both tracks ranks first")
	assert.Len(t, tags, 3)

	// n caps the result.
	assert.Len(t, favoriteTags(metadata, 1), 1)
}

func TestRankByFrequency(t *testing.T) {
	ranked := rankByFrequency([]string{"a", "b", "b", "c", "b", "a"})
	assert.Equal(t, []string{"b", "a", "c"}, ranked)

	assert.Empty(t, rankByFrequency(nil))
}

func TestGenerateTagAffinity(t *testing.T) {
	store := createStore(t)
	userID := createUser(t, store)

	// The user's top tracks establish rock and indie as favorite tags.
	seedTrack(t, store, userID, "top-1", 10, []string{"rock", "indie"})
	seedTrack(t, store, userID, "top-2", 5, []string{"rock", "pop"})

	// Candidate pool: one rock track, one jazz track.
	rockID := seedTrack(t, store, userID, "cand-rock", 0, []string{"rock"})
	jazzID := seedTrack(t, store, userID, "cand-jazz", 0, []string{"jazz"})

	engine := newTestEngine(store, &spotifytest.Fake{}, 1)
	persisted, err := engine.Generate(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, persisted)

	rec, err := store.GetRecommendation(userID, rockID)
	require.NoError(t, err)
	require.NotNil(t, rec, "The tag-matching candidate should be recommended")
	assert.Equal(t, string(SourceTagAffinity), rec.Source)
	assert.GreaterOrEqual(t, rec.Rating, RatingFloor)
	assert.Less(t, rec.Rating, RatingCeil)

	missing, err := store.GetRecommendation(userID, jazzID)
	require.NoError(t, err)
	assert.Nil(t, missing, "A candidate sharing no favorite tag must not be recommended")
}

func TestGenerateNeverRecommendsTopTracks(t *testing.T) {
	store := createStore(t)
	userID := createUser(t, store)

	topID := seedTrack(t, store, userID, "top-1", 10, []string{"rock"})
	seedTrack(t, store, userID, "cand-1", 0, []string{"rock"})

	engine := newTestEngine(store, &spotifytest.Fake{}, 5)
	_, err := engine.Generate(context.Background(), userID)
	require.NoError(t, err)

	rec, err := store.GetRecommendation(userID, topID)
	require.NoError(t, err)
	assert.Nil(t, rec, "A track in the user's own top list is not a candidate")
}

func TestGenerateSimilarTrackPropagation(t *testing.T) {
	store := createStore(t)
	userID := createUser(t, store)

	// Recent plays whose metadata carries similar-track strings; no tags,
	// so tag affinity produces nothing and the cascade moves on.
	trackID, err := store.GetOrCreateTrack("recent-1", "Recent", "Artist", 200000, 50)
	require.NoError(t, err)
	require.NoError(t, store.CreateListeningHistory(&datastore.ListeningHistory{
		UserID: userID, TrackID: trackID,
		FirstPlayedAt: time.Now(), LastPlayedAt: time.Now(), PlayCount: 1,
	}))
	require.NoError(t, store.CreateTrackMetadata(&datastore.TrackMetadata{
		TrackID: trackID,
		SimilarTracks: datatypes.JSONSlice[string]{
			"Paranoid Android by Radiohead",
			"not parseable",
		},
	}))

	var searched []string
	client := &spotifytest.Fake{
		SearchTrackFunc: func(_ context.Context, name, artist string) (*spotify.Track, error) {
			searched = append(searched, name+"/"+artist)
			return &spotify.Track{ID: "sp-similar", Name: name, Artist: artist}, nil
		},
	}

	engine := newTestEngine(store, client, 5)
	persisted, err := engine.Generate(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, persisted)
	assert.Equal(t, []string{"Paranoid Android/Radiohead"}, searched,
		"Unparseable entries are skipped without a lookup")

	// The resolved track was stored before being recommended.
	track, err := store.GetTrackBySpotifyID("sp-similar")
	require.NoError(t, err)
	require.NotNil(t, track)

	rec, err := store.GetRecommendation(userID, track.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, string(SourceSimilarTracks), rec.Source)
}

func TestGenerateFallsBackToTopTracks(t *testing.T) {
	store := createStore(t)
	userID := createUser(t, store)

	// No history at all: the first two sources produce nothing.
	var rangesTried []spotify.TimeRange
	client := &spotifytest.Fake{
		TopTracksFunc: func(_ context.Context, timeRange spotify.TimeRange, _ int) ([]spotify.Track, error) {
			rangesTried = append(rangesTried, timeRange)
			if timeRange != spotify.RangeMediumTerm {
				return nil, nil
			}
			return []spotify.Track{
				{ID: "sp-1", Name: "One", Artist: "A"},
				{ID: "sp-2", Name: "Two", Artist: "B"},
			}, nil
		},
	}

	engine := newTestEngine(store, client, 5)
	persisted, err := engine.Generate(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, persisted)
	assert.Equal(t, []spotify.TimeRange{spotify.RangeShortTerm, spotify.RangeMediumTerm}, rangesTried,
		"Shorter windows are tried first, the first non-empty one wins")

	recs, err := store.RecentRecommendations(userID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, string(SourceTopTracks), rec.Source)
	}
}

func TestGenerateNoCandidates(t *testing.T) {
	store := createStore(t)
	userID := createUser(t, store)

	engine := newTestEngine(store, &spotifytest.Fake{}, 5)
	persisted, err := engine.Generate(context.Background(), userID)
	require.Error(t, err)
	assert.Equal(t, 0, persisted)
}

func TestPersistSkipsExistingRecommendation(t *testing.T) {
	store := createStore(t)
	userID := createUser(t, store)

	existingID, err := store.GetOrCreateTrack("sp-1", "One", "A", 200000, 50)
	require.NoError(t, err)
	require.NoError(t, store.UpsertRecommendation(&datastore.Recommendation{
		UserID: userID, TrackID: existingID,
		Rating: 0.99, Source: "manual", AddedAt: time.Now(),
	}))

	client := &spotifytest.Fake{
		TopTracksFunc: func(_ context.Context, timeRange spotify.TimeRange, _ int) ([]spotify.Track, error) {
			if timeRange != spotify.RangeShortTerm {
				return nil, nil
			}
			return []spotify.Track{
				{ID: "sp-1", Name: "One", Artist: "A"},
				{ID: "sp-2", Name: "Two", Artist: "B"},
			}, nil
		},
	}

	engine := newTestEngine(store, client, 5)
	persisted, err := engine.Generate(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, persisted, "Only the new track counts")

	// The existing row is untouched.
	rec, err := store.GetRecommendation(userID, existingID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.InDelta(t, 0.99, rec.Rating, 1e-9)
	assert.Equal(t, "manual", rec.Source)
}

func TestAddManual(t *testing.T) {
	store := createStore(t)
	userID := createUser(t, store)

	client := &spotifytest.Fake{
		TrackFunc: func(_ context.Context, id string) (*spotify.Track, error) {
			return &spotify.Track{ID: id, Name: "Manual Pick", Artist: "Artist", DurationMS: 180000, Popularity: 42}, nil
		},
	}

	engine := newTestEngine(store, client, 5)
	require.NoError(t, engine.AddManual(context.Background(), userID, "sp-manual", 0.8, "manual"))

	track, err := store.GetTrackBySpotifyID("sp-manual")
	require.NoError(t, err)
	require.NotNil(t, track)

	rec, err := store.GetRecommendation(userID, track.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.InDelta(t, 0.8, rec.Rating, 1e-9)
	assert.Equal(t, "manual", rec.Source)

	// Adding again overwrites rather than duplicating.
	require.NoError(t, engine.AddManual(context.Background(), userID, "sp-manual", 0.9, "manual"))
	recs, err := store.RecentRecommendations(userID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 0.9, recs[0].Rating, 1e-9)
}

func TestGenerateSampleGenreSeeds(t *testing.T) {
	store := createStore(t)
	userID := createUser(t, store)

	topTracksCalled := false
	client := &spotifytest.Fake{
		GenreSeedsFunc: func(context.Context) ([]string, error) {
			return []string{"rock", "indie", "jazz", "ambient", "folk", "metal", "pop"}, nil
		},
		RecommendationsFunc: func(_ context.Context, seedGenres []string, limit int) ([]spotify.Track, error) {
			assert.Len(t, seedGenres, 5, "At most five seeds per request")
			return []spotify.Track{{ID: "sp-1", Name: "Seeded", Artist: "A"}}, nil
		},
		TopTracksFunc: func(context.Context, spotify.TimeRange, int) ([]spotify.Track, error) {
			topTracksCalled = true
			return nil, nil
		},
	}

	engine := newTestEngine(store, client, 5)
	persisted, err := engine.GenerateSample(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, persisted)
	assert.False(t, topTracksCalled, "Later sources run only when earlier ones produce nothing")

	recs, err := store.RecentRecommendations(userID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, string(SourceGenreSeeds), recs[0].Source)
}

func TestGenerateSampleFallsBackToNewReleases(t *testing.T) {
	store := createStore(t)
	userID := createUser(t, store)

	client := &spotifytest.Fake{
		NewReleasesFunc: func(_ context.Context, limit int) ([]spotify.Album, error) {
			return []spotify.Album{
				{ID: "alb-1", Name: "First Album"},
				{ID: "alb-2", Name: "Second Album"},
			}, nil
		},
		AlbumTracksFunc: func(_ context.Context, albumID string) ([]spotify.Track, error) {
			return []spotify.Track{
				{ID: albumID + "-t1", Name: "Opener", Artist: "A"},
				{ID: albumID + "-t2", Name: "Second", Artist: "A"},
			}, nil
		},
	}

	engine := newTestEngine(store, client, 5)
	persisted, err := engine.GenerateSample(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, persisted, "One track per album, the opener")

	track, err := store.GetTrackBySpotifyID("alb-1-t1")
	require.NoError(t, err)
	require.NotNil(t, track)

	recs, err := store.RecentRecommendations(userID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, string(SourceNewReleases), rec.Source)
	}
}
