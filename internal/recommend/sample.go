package recommend

import (
	"context"
	"fmt"

	"github.com/rmattila/trackwise/internal/spotify"
)

// genreSeedCount is how many random genre seeds feed the provider's
// recommendation endpoint, which accepts at most five seeds.
const genreSeedCount = 5

// GenerateSample is the sampling variant of the engine: candidates come
// straight from the provider instead of local metadata. Unlike the main
// cascade, each fallback runs only when the previous source produced
// nothing at all.
func (e *Engine) GenerateSample(ctx context.Context, userID uint) (int, error) {
	sources := []struct {
		source Source
		fetch  sourceFn
	}{
		{SourceGenreSeeds, e.genreSeedCandidates},
		{SourceTopTracks, e.topTrackCandidates},
		{SourceNewReleases, e.newReleaseCandidates},
	}

	var candidates []Candidate
	for _, s := range sources {
		if len(candidates) > 0 {
			break
		}
		tracks, err := s.fetch(ctx, userID, e.config.Count)
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

// genreSeedCandidates asks the provider for recommendations seeded with
// random genres.
func (e *Engine) genreSeedCandidates(ctx context.Context, _ uint, quota int) ([]spotify.Track, error) {
	genres, err := e.client.GenreSeeds(ctx)
	if err != nil {
		return nil, err
	}
	if len(genres) == 0 {
		return nil, nil
	}

	n := genreSeedCount
	if n > len(genres) {
		n = len(genres)
	}
	seeds := make([]string, 0, n)
	for _, idx := range e.rng.Perm(len(genres))[:n] {
		seeds = append(seeds, genres[idx])
	}
	e.log.Info("using seed genres", "genres", seeds)

	return e.client.Recommendations(ctx, seeds, quota)
}

// newReleaseCandidates samples the first track of each new-release album
// until the quota is met.
func (e *Engine) newReleaseCandidates(ctx context.Context, _ uint, quota int) ([]spotify.Track, error) {
	albums, err := e.client.NewReleases(ctx, quota)
	if err != nil {
		return nil, err
	}

	var tracks []spotify.Track
	for _, album := range albums {
		albumTracks, err := e.client.AlbumTracks(ctx, album.ID)
		if err != nil {
			e.log.Error("album tracks lookup failed", "album", album.Name, "error", err)
			continue
		}
		if len(albumTracks) == 0 {
			continue
		}
		tracks = append(tracks, albumTracks[0])
		if len(tracks) >= quota {
			break
		}
	}
	return tracks, nil
}
