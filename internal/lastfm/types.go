package lastfm

import (
	"encoding/json"
	"time"
)

// Config holds configuration for the Last.fm client
type Config struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	CacheTTL    time.Duration
	RateLimitMS int
}

// DefaultConfig returns the default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://ws.audioscrobbler.com/2.0/",
		Timeout:     15 * time.Second,
		CacheTTL:    1 * time.Hour,
		RateLimitMS: 1000, // Last.fm asks for at most ~1 request per second
	}
}

// TrackInfo is the enrichment payload for one track.
type TrackInfo struct {
	Name        string
	Artist      string
	Listeners   int64
	Playcount   int64
	Tags        []string
	WikiSummary string
}

// SimilarTrack is one entry from a similar-tracks lookup.
type SimilarTrack struct {
	Name   string
	Artist string
	Match  float64
}

// trackInfoResponse mirrors the track.getInfo JSON shape. Counts come
// back as strings and are parsed by the client.
type trackInfoResponse struct {
	Track *struct {
		Name      string `json:"name"`
		Listeners string `json:"listeners"`
		Playcount string `json:"playcount"`
		Artist    struct {
			Name string `json:"name"`
		} `json:"artist"`
		TopTags struct {
			Tag tagList `json:"tag"`
		} `json:"toptags"`
		Wiki struct {
			Summary string `json:"summary"`
		} `json:"wiki"`
	} `json:"track"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// similarTracksResponse mirrors the track.getSimilar JSON shape.
type similarTracksResponse struct {
	SimilarTracks struct {
		Track []struct {
			Name   string  `json:"name"`
			Match  float64 `json:"match"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"track"`
	} `json:"similartracks"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

type tag struct {
	Name string `json:"name"`
}

// tagList accepts both the usual array form and the single-object form
// the API uses when a track has exactly one tag.
type tagList []tag

func (t *tagList) UnmarshalJSON(data []byte) error {
	var list []tag
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var single tag
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*t = tagList{single}
	return nil
}
