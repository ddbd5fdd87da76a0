// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rmattila/trackwise/internal/conf"
)

// Interface abstracts the underlying database implementation and defines
// the operations the pipeline stages need. Lookup methods return
// (nil, nil) when no row matches, so callers can distinguish "absent"
// from a real query failure.
type Interface interface {
	Open() error
	Close() error

	GetUserBySpotifyID(spotifyID string) (*User, error)
	CreateUser(user *User) error

	GetTrackBySpotifyID(spotifyID string) (*Track, error)
	GetTrackByID(id uint) (*Track, error)
	CreateTrack(track *Track) error
	GetOrCreateTrack(spotifyID, name, artist string, durationMS, popularity int) (uint, error)

	GetListeningHistory(userID, trackID uint) (*ListeningHistory, error)
	CreateListeningHistory(history *ListeningHistory) error
	UpdateListeningHistory(history *ListeningHistory) error
	TopHistoryByPlayCount(userID uint, limit int) ([]ListeningHistory, error)
	RecentHistory(userID uint, limit int) ([]ListeningHistory, error)

	TracksWithoutMetadata(limit int) ([]Track, error)
	CreateTrackMetadata(metadata *TrackMetadata) error
	GetMetadataForTracks(trackIDs []uint) ([]TrackMetadata, error)
	AllTrackMetadata() ([]TrackMetadata, error)

	GetRecommendation(userID, trackID uint) (*Recommendation, error)
	UpsertRecommendation(rec *Recommendation) error
	RecentRecommendations(userID uint, limit int) ([]Recommendation, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a store instance based on the enabled database in settings.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Database.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Database.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// GetUserBySpotifyID looks a user up by provider id.
func (ds *DataStore) GetUserBySpotifyID(spotifyID string) (*User, error) {
	var user User
	err := ds.DB.Where("spotify_id = ?", spotifyID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", spotifyID, err)
	}
	return &user, nil
}

// CreateUser inserts a new user row.
func (ds *DataStore) CreateUser(user *User) error {
	if err := ds.DB.Create(user).Error; err != nil {
		return fmt.Errorf("creating user %s: %w", user.SpotifyID, err)
	}
	return nil
}

// GetTrackBySpotifyID looks a track up by its natural key.
func (ds *DataStore) GetTrackBySpotifyID(spotifyID string) (*Track, error) {
	var track Track
	err := ds.DB.Where("spotify_id = ?", spotifyID).First(&track).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting track %s: %w", spotifyID, err)
	}
	return &track, nil
}

// GetTrackByID looks a track up by its database id.
func (ds *DataStore) GetTrackByID(id uint) (*Track, error) {
	var track Track
	err := ds.DB.First(&track, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting track id %d: %w", id, err)
	}
	return &track, nil
}

// CreateTrack inserts a new track row.
func (ds *DataStore) CreateTrack(track *Track) error {
	if err := ds.DB.Create(track).Error; err != nil {
		return fmt.Errorf("creating track %s: %w", track.SpotifyID, err)
	}
	return nil
}

// GetOrCreateTrack resolves a track id by natural key, inserting a row
// when none exists. The first-seen name and artist win, existing rows are
// never refreshed.
func (ds *DataStore) GetOrCreateTrack(spotifyID, name, artist string, durationMS, popularity int) (uint, error) {
	existing, err := ds.GetTrackBySpotifyID(spotifyID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	track := Track{
		SpotifyID:  spotifyID,
		Name:       name,
		Artist:     artist,
		DurationMS: durationMS,
		Popularity: popularity,
	}
	if err := ds.CreateTrack(&track); err != nil {
		return 0, err
	}
	return track.ID, nil
}

// GetListeningHistory returns the history row for a (user, track) pair.
func (ds *DataStore) GetListeningHistory(userID, trackID uint) (*ListeningHistory, error) {
	var history ListeningHistory
	err := ds.DB.Where("user_id = ? AND track_id = ?", userID, trackID).First(&history).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting listening history for user %d track %d: %w", userID, trackID, err)
	}
	return &history, nil
}

// CreateListeningHistory inserts a new history row.
func (ds *DataStore) CreateListeningHistory(history *ListeningHistory) error {
	if err := ds.DB.Create(history).Error; err != nil {
		return fmt.Errorf("creating listening history: %w", err)
	}
	return nil
}

// UpdateListeningHistory saves play count and timestamp changes.
func (ds *DataStore) UpdateListeningHistory(history *ListeningHistory) error {
	err := ds.DB.Model(history).
		Updates(map[string]any{
			"play_count":     history.PlayCount,
			"last_played_at": history.LastPlayedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("updating listening history %d: %w", history.ID, err)
	}
	return nil
}

// TopHistoryByPlayCount returns a user's history ordered by play count.
func (ds *DataStore) TopHistoryByPlayCount(userID uint, limit int) ([]ListeningHistory, error) {
	var rows []ListeningHistory
	err := ds.DB.Where("user_id = ?", userID).
		Order("play_count DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("getting top history for user %d: %w", userID, err)
	}
	return rows, nil
}

// RecentHistory returns a user's history ordered by last played time.
func (ds *DataStore) RecentHistory(userID uint, limit int) ([]ListeningHistory, error) {
	var rows []ListeningHistory
	err := ds.DB.Where("user_id = ?", userID).
		Order("last_played_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("getting recent history for user %d: %w", userID, err)
	}
	return rows, nil
}

// TracksWithoutMetadata returns tracks that have no enrichment row yet,
// capped to limit. The backlog drains across repeated runs.
func (ds *DataStore) TracksWithoutMetadata(limit int) ([]Track, error) {
	var tracks []Track
	err := ds.DB.
		Where("id NOT IN (?)", ds.DB.Model(&TrackMetadata{}).Select("track_id")).
		Limit(limit).
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("getting tracks without metadata: %w", err)
	}
	return tracks, nil
}

// CreateTrackMetadata inserts an enrichment row. There is no update path,
// re-enrichment requires deleting the row first.
func (ds *DataStore) CreateTrackMetadata(metadata *TrackMetadata) error {
	if metadata.UpdatedAt.IsZero() {
		metadata.UpdatedAt = time.Now()
	}
	if err := ds.DB.Create(metadata).Error; err != nil {
		return fmt.Errorf("creating track metadata for track %d: %w", metadata.TrackID, err)
	}
	return nil
}

// GetMetadataForTracks returns the enrichment rows for the given track ids.
func (ds *DataStore) GetMetadataForTracks(trackIDs []uint) ([]TrackMetadata, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}
	var rows []TrackMetadata
	err := ds.DB.Where("track_id IN ?", trackIDs).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("getting metadata for %d tracks: %w", len(trackIDs), err)
	}
	return rows, nil
}

// AllTrackMetadata returns every enrichment row. The candidate pool is
// small enough that a full scan is fine.
func (ds *DataStore) AllTrackMetadata() ([]TrackMetadata, error) {
	var rows []TrackMetadata
	if err := ds.DB.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("getting all track metadata: %w", err)
	}
	return rows, nil
}

// GetRecommendation returns the recommendation row for a (user, track) pair.
func (ds *DataStore) GetRecommendation(userID, trackID uint) (*Recommendation, error) {
	var rec Recommendation
	err := ds.DB.Where("user_id = ? AND track_id = ?", userID, trackID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting recommendation for user %d track %d: %w", userID, trackID, err)
	}
	return &rec, nil
}

// UpsertRecommendation inserts a recommendation, or overwrites rating,
// source and added time in place when a row already exists for the
// (user, track) pair. Never duplicates the pair.
func (ds *DataStore) UpsertRecommendation(rec *Recommendation) error {
	existing, err := ds.GetRecommendation(rec.UserID, rec.TrackID)
	if err != nil {
		return err
	}
	if rec.AddedAt.IsZero() {
		rec.AddedAt = time.Now()
	}
	if existing != nil {
		err := ds.DB.Model(existing).
			Updates(map[string]any{
				"rating":   rec.Rating,
				"source":   rec.Source,
				"added_at": rec.AddedAt,
			}).Error
		if err != nil {
			return fmt.Errorf("updating recommendation %d: %w", existing.ID, err)
		}
		rec.ID = existing.ID
		return nil
	}
	if err := ds.DB.Create(rec).Error; err != nil {
		return fmt.Errorf("creating recommendation: %w", err)
	}
	return nil
}

// RecentRecommendations returns a user's recommendations, newest first.
func (ds *DataStore) RecentRecommendations(userID uint, limit int) ([]Recommendation, error) {
	var rows []Recommendation
	err := ds.DB.Where("user_id = ?", userID).
		Order("added_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("getting recent recommendations for user %d: %w", userID, err)
	}
	return rows, nil
}
