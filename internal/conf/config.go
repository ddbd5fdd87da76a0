// config.go: loads and holds the application settings
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// SpotifySettings holds credentials and token storage for the streaming API.
type SpotifySettings struct {
	ClientID     string // application client id
	ClientSecret string // application client secret
	RedirectURI  string // OAuth callback, must match the app registration
	TokenFile    string // path of the cached OAuth token
}

// LastFMSettings holds configuration for the metadata provider client.
type LastFMSettings struct {
	APIKey      string        // Last.fm API key
	Endpoint    string        // API base URL
	Timeout     time.Duration // HTTP request timeout
	CacheTTL    time.Duration // response cache lifetime
	RateLimitMS int           // minimum pause between API calls in milliseconds
}

// DatabaseSettings selects and configures the persistent store.
type DatabaseSettings struct {
	SQLite struct {
		Enabled bool
		Path    string
	}
	MySQL struct {
		Enabled  bool
		Username string
		Password string
		Database string
		Host     string
		Port     string
	}
}

// RecommendSettings tunes the recommendation engine.
type RecommendSettings struct {
	Count        int // target number of recommendations per run
	TopTracks    int // history rows considered for tag affinity
	FavoriteTags int // favorite tags kept from the frequency count
	RecentTracks int // history rows considered for similarity propagation
}

// EnrichSettings tunes the metadata enrichment stage.
type EnrichSettings struct {
	BatchSize    int // tracks enriched per run
	SimilarLimit int // similar tracks requested per lookup
	PauseMS      int // pause between provider calls in milliseconds
}

// PlaylistSettings configures the published playlist.
type PlaylistSettings struct {
	Name         string
	Description  string
	CoverImage   string // path of the cover image, empty disables upload
	Limit        int    // tracks synced into the playlist
	HistoryFetch int    // recently-played page size for the collect stage
}

// Settings is the root configuration structure.
type Settings struct {
	Debug bool // true enables debug level logging

	Main struct {
		Name string // application instance name, used in startup logging
		Log  struct {
			Enabled bool
			Path    string
		}
	}

	Spotify   SpotifySettings
	LastFM    LastFMSettings
	Database  DatabaseSettings
	Recommend RecommendSettings
	Enrich    EnrichSettings
	Playlist  PlaylistSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.Mutex
)

// Load reads the configuration file and environment variables into a Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// GetSettings returns the settings loaded by Load, or nil before Load has run.
func GetSettings() *Settings {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	return settingsInstance
}

// initViper initializes viper with defaults and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Secrets are commonly supplied through the environment,
	// e.g. TRACKWISE_SPOTIFY_CLIENTSECRET.
	viper.SetEnvPrefix("trackwise")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, defaults and environment apply.
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order: working directory, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error resolving user config dir: %w", err)
	}
	paths = append(paths, filepath.Join(configDir, "trackwise"))

	return paths, nil
}

// ValidateSettings checks settings for values that would make a run impossible.
func ValidateSettings(settings *Settings) error {
	if !settings.Database.SQLite.Enabled && !settings.Database.MySQL.Enabled {
		return fmt.Errorf("no database enabled, enable either sqlite or mysql output")
	}
	if settings.Database.SQLite.Enabled && settings.Database.MySQL.Enabled {
		return fmt.Errorf("both sqlite and mysql enabled, pick one")
	}
	if settings.Recommend.Count <= 0 {
		return fmt.Errorf("recommend.count must be positive, got %d", settings.Recommend.Count)
	}
	if settings.Enrich.BatchSize <= 0 {
		return fmt.Errorf("enrich.batchsize must be positive, got %d", settings.Enrich.BatchSize)
	}
	return nil
}
