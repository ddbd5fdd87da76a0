// Package recommend derives ranked track recommendations from listening
// history and Last.fm metadata.
//
// The engine runs an ordered list of candidate sources until the quota is
// met: tag affinity first, then similar-track propagation, then the
// provider's own top-tracks list as a fallback. Each candidate is
// persisted with the source that claimed it; within a run the first
// source to claim a track wins.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/rmattila/trackwise/internal/datastore"
	"github.com/rmattila/trackwise/internal/spotify"
)

// Engine produces and persists recommendations for one user per run.
type Engine struct {
	store  datastore.Interface
	client spotify.Client
	config Config
	rng    *rand.Rand
	log    *slog.Logger
}

// sourceFn fills at most quota candidates.
type sourceFn func(ctx context.Context, userID uint, quota int) ([]spotify.Track, error)

// NewEngine creates an Engine with its own rating source.
func NewEngine(store datastore.Interface, client spotify.Client, config Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:  store,
		client: client,
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		log:    log.With("service", "recommend"),
	}
}

// Generate runs the source cascade and persists the gathered candidates.
// Returns the number of recommendation rows created. At least one
// persisted row counts as success for the pipeline stage.
func (e *Engine) Generate(ctx context.Context, userID uint) (int, error) {
	sources := []struct {
		source Source
		fetch  sourceFn
	}{
		{SourceTagAffinity, e.tagAffinityCandidates},
		{SourceSimilarTracks, e.similarTrackCandidates},
		{SourceTopTracks, e.topTrackCandidates},
	}

	var candidates []Candidate
	for _, s := range sources {
		remaining := e.config.Count - len(candidates)
		if remaining <= 0 {
			break
		}
		tracks, err := s.fetch(ctx, userID, remaining)
		if err != nil {
			e.log.Error("candidate source failed", "source", s.source, "error", err)
			continue
		}
		e.log.Info("candidate source done", "source", s.source, "candidates", len(tracks))
		for _, t := range tracks {
			candidates = append(candidates, Candidate{Track: t, Source: s.source})
		}
	}

	if len(candidates) == 0 {
		return 0, fmt.Errorf("no candidates from any source")
	}

	return e.persist(ctx, userID, candidates)
}

// tagAffinityCandidates ranks the metadata pool by overlap with the
// user's favorite tags.
func (e *Engine) tagAffinityCandidates(ctx context.Context, userID uint, quota int) ([]spotify.Track, error) {
	top, err := e.store.TopHistoryByPlayCount(userID, e.config.TopTracks)
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		e.log.Info("no listening history for tag affinity")
		return nil, nil
	}

	topIDs := make(map[uint]bool, len(top))
	trackIDs := make([]uint, 0, len(top))
	for _, h := range top {
		topIDs[h.TrackID] = true
		trackIDs = append(trackIDs, h.TrackID)
	}

	metadata, err := e.store.GetMetadataForTracks(trackIDs)
	if err != nil {
		return nil, err
	}

	favorites := favoriteTags(metadata, e.config.FavoriteTags)
	if len(favorites) == 0 {
		e.log.Info("no tags found for top tracks")
		return nil, nil
	}
	e.log.Info("favorite tags", "tags", favorites)

	favoriteSet := make(map[string]bool, len(favorites))
	for _, tag := range favorites {
		favoriteSet[tag] = true
	}

	pool, err := e.store.AllTrackMetadata()
	if err != nil {
		return nil, err
	}

	type scored struct {
		trackID uint
		matches int
	}
	var matching []scored
	for i := range pool {
		if topIDs[pool[i].TrackID] {
			continue
		}
		matches := 0
		for _, tag := range pool[i].Tags {
			if favoriteSet[tag] {
				matches++
			}
		}
		if matches > 0 {
			matching = append(matching, scored{pool[i].TrackID, matches})
		}
	}

	sort.SliceStable(matching, func(a, b int) bool {
		return matching[a].matches > matching[b].matches
	})
	if len(matching) > quota {
		matching = matching[:quota]
	}

	var tracks []spotify.Track
	for _, m := range matching {
		track, err := e.resolveTrack(ctx, m.trackID)
		if err != nil {
			e.log.Error("skipping candidate", "track_id", m.trackID, "error", err)
			continue
		}
		tracks = append(tracks, *track)
	}
	return tracks, nil
}

// similarTrackCandidates propagates the metadata provider's similar-track
// lists from the user's most recent plays. Accepted candidates are
// persisted as track rows immediately so they exist before ever being
// played.
func (e *Engine) similarTrackCandidates(ctx context.Context, userID uint, quota int) ([]spotify.Track, error) {
	recent, err := e.store.RecentHistory(userID, e.config.RecentTracks)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		e.log.Info("no recent listening history for similarity")
		return nil, nil
	}

	trackIDs := make([]uint, 0, len(recent))
	for _, h := range recent {
		trackIDs = append(trackIDs, h.TrackID)
	}

	metadata, err := e.store.GetMetadataForTracks(trackIDs)
	if err != nil {
		return nil, err
	}

	var all []string
	for i := range metadata {
		all = append(all, metadata[i].SimilarTracks...)
	}
	if len(all) == 0 {
		e.log.Info("no similar tracks in metadata")
		return nil, nil
	}

	ranked := rankByFrequency(all)
	if len(ranked) > quota {
		ranked = ranked[:quota]
	}

	var tracks []spotify.Track
	for _, entry := range ranked {
		name, artist, ok := ParseSimilarTrack(entry)
		if !ok {
			continue
		}
		track, err := e.client.SearchTrack(ctx, name, artist)
		if err != nil {
			e.log.Error("search failed", "entry", entry, "error", err)
			continue
		}
		if track == nil {
			continue
		}
		// Pre-populate the track row for future runs.
		if _, err := e.store.GetOrCreateTrack(track.ID, track.Name, track.Artist, track.DurationMS, track.Popularity); err != nil {
			e.log.Error("storing candidate track failed", "entry", entry, "error", err)
			continue
		}
		tracks = append(tracks, *track)
	}
	return tracks, nil
}

// topTrackCandidates falls back to the provider's top-tracks lists,
// trying the shortest time window first.
func (e *Engine) topTrackCandidates(ctx context.Context, _ uint, quota int) ([]spotify.Track, error) {
	for _, timeRange := range spotify.TimeRanges {
		tracks, err := e.client.TopTracks(ctx, timeRange, quota)
		if err != nil {
			e.log.Error("top tracks lookup failed", "range", timeRange, "error", err)
			continue
		}
		if len(tracks) > 0 {
			e.log.Info("using top tracks", "range", timeRange, "count", len(tracks))
			return tracks, nil
		}
	}
	return nil, nil
}

// persist writes recommendation rows for the candidates. Tracks that
// already carry a recommendation for this user are skipped, so the first
// claiming source wins.
func (e *Engine) persist(ctx context.Context, userID uint, candidates []Candidate) (int, error) {
	persisted := 0
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return persisted, err
		}
		trackID, err := e.store.GetOrCreateTrack(
			c.Track.ID, c.Track.Name, c.Track.Artist,
			c.Track.DurationMS, c.Track.Popularity)
		if err != nil {
			e.log.Error("storing track failed", "track", c.Track.Name, "error", err)
			continue
		}

		existing, err := e.store.GetRecommendation(userID, trackID)
		if err != nil {
			e.log.Error("recommendation lookup failed", "track", c.Track.Name, "error", err)
			continue
		}
		if existing != nil {
			e.log.Debug("recommendation already exists", "track", c.Track.Name)
			continue
		}

		rec := &datastore.Recommendation{
			UserID:  userID,
			TrackID: trackID,
			AddedAt: time.Now(),
			Rating:  e.rating(),
			Source:  string(c.Source),
		}
		if err := e.store.UpsertRecommendation(rec); err != nil {
			e.log.Error("persisting recommendation failed", "track", c.Track.Name, "error", err)
			continue
		}
		e.log.Info("added recommendation", "track", c.Track.Name, "artist", c.Track.Artist, "source", c.Source)
		persisted++
	}
	e.log.Info("persistence complete", "persisted", persisted, "candidates", len(candidates))
	return persisted, nil
}

// AddManual upserts a single recommendation for a provider track id,
// with caller-supplied rating and source.
func (e *Engine) AddManual(ctx context.Context, userID uint, providerTrackID string, rating float64, source string) error {
	track, err := e.client.Track(ctx, providerTrackID)
	if err != nil {
		return fmt.Errorf("resolving track %s: %w", providerTrackID, err)
	}

	trackID, err := e.store.GetOrCreateTrack(track.ID, track.Name, track.Artist, track.DurationMS, track.Popularity)
	if err != nil {
		return err
	}

	rec := &datastore.Recommendation{
		UserID:  userID,
		TrackID: trackID,
		AddedAt: time.Now(),
		Rating:  rating,
		Source:  source,
	}
	return e.store.UpsertRecommendation(rec)
}

// resolveTrack maps a stored track id to a live provider track object.
func (e *Engine) resolveTrack(ctx context.Context, trackID uint) (*spotify.Track, error) {
	stored, err := e.store.GetTrackByID(trackID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("track id %d not in store", trackID)
	}
	return e.client.Track(ctx, stored.SpotifyID)
}

// rating draws a pseudo-confidence value from [RatingFloor, RatingCeil).
func (e *Engine) rating() float64 {
	return RatingFloor + e.rng.Float64()*(RatingCeil-RatingFloor)
}

// favoriteTags counts tag frequency across the given metadata rows and
// returns the top n tags. Ties keep first-appearance order.
func favoriteTags(metadata []datastore.TrackMetadata, n int) []string {
	counts := make(map[string]int)
	var order []string
	for i := range metadata {
		for _, tag := range metadata[i].Tags {
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// rankByFrequency orders distinct strings by how often they occur,
// most frequent first, ties keeping first-appearance order.
func rankByFrequency(entries []string) []string {
	counts := make(map[string]int)
	var order []string
	for _, entry := range entries {
		if counts[entry] == 0 {
			order = append(order, entry)
		}
		counts[entry]++
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	return order
}
