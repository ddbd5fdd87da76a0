package recommend

import "github.com/rmattila/trackwise/internal/spotify"

// Source identifies which recommender claimed a candidate. The value is
// persisted on the recommendation row.
type Source string

const (
	SourceTagAffinity   Source = "tag_affinity"
	SourceSimilarTracks Source = "similar_tracks"
	SourceTopTracks     Source = "top_tracks"
	SourceGenreSeeds    Source = "genre_seeds"
	SourceNewReleases   Source = "new_releases"
)

// Candidate is a track under consideration before persistence, tagged
// with the source that produced it.
type Candidate struct {
	Track  spotify.Track
	Source Source
}

// Ratings are pseudo-confidence placeholders drawn uniformly from
// [RatingFloor, RatingCeil), not a measured signal.
const (
	RatingFloor = 0.6
	RatingCeil  = 1.0
)

// Config tunes the candidate sourcing stages.
type Config struct {
	Count        int // target number of recommendations
	TopTracks    int // history rows considered for tag affinity
	FavoriteTags int // favorite tags kept from the frequency count
	RecentTracks int // history rows considered for similarity propagation
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Count:        30,
		TopTracks:    10,
		FavoriteTags: 5,
		RecentTracks: 5,
	}
}
