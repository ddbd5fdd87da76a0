// Package enrich fills in Last.fm metadata for tracks that have none yet.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rmattila/trackwise/internal/datastore"
	"github.com/rmattila/trackwise/internal/lastfm"
)

// MetadataClient is the metadata-provider capability set the enricher
// needs. *lastfm.Client satisfies it.
type MetadataClient interface {
	TrackInfo(ctx context.Context, artist, track string) (*lastfm.TrackInfo, error)
	SimilarTracks(ctx context.Context, artist, track string, limit int) ([]lastfm.SimilarTrack, error)
}

// Enricher drains the metadata backlog in fixed-size batches, one run at
// a time.
type Enricher struct {
	store        datastore.Interface
	client       MetadataClient
	batchSize    int
	similarLimit int
	pause        time.Duration
	sleep        func(time.Duration) // injectable for tests
	log          *slog.Logger
}

// New creates an Enricher. batchSize caps tracks per run; pause is the
// delay enforced after each provider lookup.
func New(store datastore.Interface, client MetadataClient, batchSize, similarLimit int, pause time.Duration, log *slog.Logger) *Enricher {
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{
		store:        store,
		client:       client,
		batchSize:    batchSize,
		similarLimit: similarLimit,
		pause:        pause,
		sleep:        time.Sleep,
		log:          log.With("service", "enrich"),
	}
}

// Run enriches up to one batch of tracks lacking metadata. Per-track
// failures are logged and skipped. Returns the number of tracks enriched.
func (e *Enricher) Run(ctx context.Context) (int, error) {
	tracks, err := e.store.TracksWithoutMetadata(e.batchSize)
	if err != nil {
		return 0, err
	}
	if len(tracks) == 0 {
		e.log.Info("no tracks need metadata")
		return 0, nil
	}
	e.log.Info("collecting metadata", "tracks", len(tracks))

	enriched := 0
	for i := range tracks {
		if err := ctx.Err(); err != nil {
			return enriched, err
		}
		if err := e.enrichTrack(ctx, &tracks[i]); err != nil {
			e.log.Error("skipping track",
				"track", tracks[i].Name,
				"artist", tracks[i].Artist,
				"error", err)
		} else {
			enriched++
		}
		// Pause between tracks to respect the provider's rate limit.
		e.sleep(e.pause)
	}

	e.log.Info("metadata collection complete", "enriched", enriched, "selected", len(tracks))
	return enriched, nil
}

// enrichTrack performs both provider lookups for one track and inserts
// the metadata row. A failed similar-tracks lookup degrades to an empty
// list; a missing track-info payload skips the track entirely.
func (e *Enricher) enrichTrack(ctx context.Context, track *datastore.Track) error {
	info, err := e.client.TrackInfo(ctx, track.Artist, track.Name)
	if err != nil {
		return fmt.Errorf("track info lookup: %w", err)
	}
	if info == nil {
		return fmt.Errorf("no info found")
	}

	similar, err := e.client.SimilarTracks(ctx, track.Artist, track.Name, e.similarLimit)
	if err != nil {
		// Best-effort signal: base metadata is still stored.
		e.log.Warn("similar tracks lookup failed",
			"track", track.Name,
			"artist", track.Artist,
			"error", err)
		similar = nil
	}

	similarStrings := make([]string, 0, len(similar))
	for _, s := range similar {
		similarStrings = append(similarStrings, fmt.Sprintf("%s by %s", s.Name, s.Artist))
	}

	tags := info.Tags
	if tags == nil {
		tags = []string{}
	}

	metadata := &datastore.TrackMetadata{
		TrackID:       track.ID,
		Listeners:     info.Listeners,
		Playcount:     info.Playcount,
		Tags:          tags,
		SimilarTracks: similarStrings,
		WikiSummary:   TrimWikiSummary(info.WikiSummary),
		UpdatedAt:     time.Now(),
	}
	if err := e.store.CreateTrackMetadata(metadata); err != nil {
		return err
	}

	e.log.Debug("stored metadata",
		"track", track.Name,
		"artist", track.Artist,
		"tags", len(tags),
		"similar", len(similarStrings))
	return nil
}

// TrimWikiSummary strips the trailing hyperlink markup Last.fm embeds in
// wiki summaries: everything from the first anchor-tag opening sequence
// onward is dropped and the remainder trimmed.
func TrimWikiSummary(summary string) string {
	head, _, _ := strings.Cut(summary, "<a href")
	return strings.TrimSpace(head)
}
