package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rmattila/trackwise/internal/conf"
	"github.com/rmattila/trackwise/internal/datastore"
	"github.com/rmattila/trackwise/internal/enrich"
	"github.com/rmattila/trackwise/internal/ingest"
	"github.com/rmattila/trackwise/internal/lastfm"
	"github.com/rmattila/trackwise/internal/publish"
	"github.com/rmattila/trackwise/internal/recommend"
	"github.com/rmattila/trackwise/internal/spotify"
)

// App bundles the shared dependencies of the pipeline stages.
type App struct {
	Settings *conf.Settings
	Store    datastore.Interface
	Spotify  spotify.Client
	LastFM   *lastfm.Client
}

// NewApp opens the datastore and authenticates the external clients.
func NewApp(ctx context.Context, settings *conf.Settings) (*App, error) {
	store := datastore.New(settings)
	if store == nil {
		return nil, fmt.Errorf("no database enabled in settings")
	}
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("opening datastore: %w", err)
	}

	client, err := spotify.Authenticate(ctx, &settings.Spotify)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("authenticating with spotify: %w", err)
	}

	fm, err := lastfm.NewClient(lastfm.Config{
		APIKey:      settings.LastFM.APIKey,
		BaseURL:     settings.LastFM.Endpoint,
		Timeout:     settings.LastFM.Timeout,
		CacheTTL:    settings.LastFM.CacheTTL,
		RateLimitMS: settings.LastFM.RateLimitMS,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating lastfm client: %w", err)
	}

	slog.Info("app initialized", "instance", settings.Main.Name)
	return &App{Settings: settings, Store: store, Spotify: client, LastFM: fm}, nil
}

// Close releases the datastore and client resources.
func (a *App) Close() {
	a.LastFM.Close()
	if err := a.Store.Close(); err != nil {
		slog.Error("closing datastore", "error", err)
	}
}

// Collect runs the listening-history stage.
func (a *App) Collect(ctx context.Context) error {
	ingestor := ingest.New(a.Store, a.Spotify, a.Settings.Playlist.HistoryFetch, slog.Default())
	result, err := ingestor.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Collection complete: %d new, %d updated, %d skipped\n",
		result.New, result.Updated, result.Skipped)
	return nil
}

// Enrich runs the metadata-enrichment stage.
func (a *App) Enrich(ctx context.Context) error {
	enricher := enrich.New(a.Store, a.LastFM,
		a.Settings.Enrich.BatchSize,
		a.Settings.Enrich.SimilarLimit,
		time.Duration(a.Settings.Enrich.PauseMS)*time.Millisecond,
		slog.Default())
	count, err := enricher.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Enrichment complete: %d tracks enriched\n", count)
	return nil
}

// Recommend runs the recommendation engine. sample selects the sampling
// variant.
func (a *App) Recommend(ctx context.Context, sample bool) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	engine := a.engine()
	var count int
	if sample {
		count, err = engine.GenerateSample(ctx, user.ID)
	} else {
		count, err = engine.Generate(ctx, user.ID)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Recommendations complete: %d added\n", count)
	return nil
}

// AddRecommendation is the manual single-recommendation mode.
func (a *App) AddRecommendation(ctx context.Context, providerTrackID string, rating float64, source string) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	return a.engine().AddManual(ctx, user.ID, providerTrackID, rating, source)
}

// Publish runs the playlist-publishing stage. A cover-image failure is
// logged but does not fail the stage.
func (a *App) Publish(ctx context.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	publisher := publish.New(a.Store, a.Spotify, slog.Default())
	playlist, err := publisher.GetOrCreatePlaylist(ctx, a.Settings.Playlist.Name, a.Settings.Playlist.Description)
	if err != nil {
		return err
	}

	count, err := publisher.SyncTracks(ctx, playlist.ID, user.ID, a.Settings.Playlist.Limit)
	if err != nil {
		return err
	}
	fmt.Printf("Playlist sync complete: %d tracks\n", count)

	if path := a.Settings.Playlist.CoverImage; path != "" {
		if err := publisher.SetCoverImage(ctx, playlist.ID, path); err != nil {
			slog.Error("setting cover image failed", "path", path, "error", err)
		}
	}
	return nil
}

// Stages returns the full pipeline in execution order.
func (a *App) Stages() []Stage {
	return []Stage{
		{Name: "collect", Run: a.Collect},
		{Name: "enrich", Run: a.Enrich},
		{Name: "recommend", Run: func(ctx context.Context) error { return a.Recommend(ctx, false) }},
		{Name: "publish", Run: a.Publish},
	}
}

// currentUser resolves the authenticated account to its local user row,
// creating it on first sight so every stage can run standalone.
func (a *App) currentUser(ctx context.Context) (*datastore.User, error) {
	ingestor := ingest.New(a.Store, a.Spotify, a.Settings.Playlist.HistoryFetch, slog.Default())
	return ingestor.EnsureUser(ctx)
}

func (a *App) engine() *recommend.Engine {
	return recommend.NewEngine(a.Store, a.Spotify, recommend.Config{
		Count:        a.Settings.Recommend.Count,
		TopTracks:    a.Settings.Recommend.TopTracks,
		FavoriteTags: a.Settings.Recommend.FavoriteTags,
		RecentTracks: a.Settings.Recommend.RecentTracks,
	}, slog.Default())
}
