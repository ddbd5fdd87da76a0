package spotify

import "time"

// TimeRange selects the window for top-track queries.
type TimeRange string

const (
	RangeShortTerm  TimeRange = "short_term"
	RangeMediumTerm TimeRange = "medium_term"
	RangeLongTerm   TimeRange = "long_term"
)

// TimeRanges lists the windows in fallback order, shortest first.
var TimeRanges = []TimeRange{RangeShortTerm, RangeMediumTerm, RangeLongTerm}

// Track is the slice of provider track data the pipeline cares about.
type Track struct {
	ID         string
	Name       string
	Artist     string
	DurationMS int
	Popularity int
}

// PlayedItem is one recently-played event.
type PlayedItem struct {
	Track    Track
	PlayedAt time.Time
}

// User identifies the authenticated provider account.
type User struct {
	ID          string
	DisplayName string
}

// Playlist is the provider playlist summary used for reconciliation.
type Playlist struct {
	ID          string
	Name        string
	Description string
}

// Album is a provider album reference, used by the new-release sampler.
type Album struct {
	ID   string
	Name string
}
