// model.go this code defines the data model for the application
package datastore

import (
	"time"

	"gorm.io/datatypes"
)

// User represents a streaming-service account seen by the pipeline.
// Created on first sight of a provider user id and never deleted.
type User struct {
	ID          uint   `gorm:"primaryKey"`
	SpotifyID   string `gorm:"uniqueIndex;not null"`
	DisplayName string
	CreatedAt   time.Time
}

// Track represents a single track. SpotifyID is the natural key, all
// lookups go through it so the same track never gets two rows.
type Track struct {
	ID         uint   `gorm:"primaryKey"`
	SpotifyID  string `gorm:"uniqueIndex;not null"`
	Name       string `gorm:"index:idx_tracks_name"`
	Artist     string `gorm:"index:idx_tracks_artist"`
	DurationMS int
	Popularity int
	CreatedAt  time.Time
}

// ListeningHistory aggregates plays per (user, track) pair. Uniqueness of
// the pair is enforced by lookup-before-insert in the ingestor rather than
// a database constraint.
type ListeningHistory struct {
	ID            uint `gorm:"primaryKey"`
	UserID        uint `gorm:"index:idx_history_user;index:idx_history_user_track"`
	TrackID       uint `gorm:"index:idx_history_user_track"`
	FirstPlayedAt time.Time
	LastPlayedAt  time.Time `gorm:"index:idx_history_last_played"`
	PlayCount     int
}

// TableName keeps the original singular table name.
func (ListeningHistory) TableName() string {
	return "listening_history"
}

// TrackMetadata holds Last.fm enrichment for a track, at most one row per
// track. Tags and SimilarTracks preserve the provider's ordering.
type TrackMetadata struct {
	ID            uint `gorm:"primaryKey"`
	TrackID       uint `gorm:"uniqueIndex;not null"`
	Listeners     int64
	Playcount     int64
	Tags          datatypes.JSONSlice[string]
	SimilarTracks datatypes.JSONSlice[string]
	WikiSummary   string
	UpdatedAt     time.Time
}

// TableName keeps the original singular table name.
func (TrackMetadata) TableName() string {
	return "track_metadata"
}

// Recommendation is a scored track suggestion for a user. At most one row
// per (user, track); Rating is a confidence placeholder in [0.6, 1.0), not
// a measured signal.
type Recommendation struct {
	ID      uint      `gorm:"primaryKey"`
	UserID  uint      `gorm:"index:idx_recommendations_user;index:idx_recommendations_user_track"`
	TrackID uint      `gorm:"index:idx_recommendations_user_track"`
	AddedAt time.Time `gorm:"index:idx_recommendations_added"`
	Rating  float64
	Source  string
}
