// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Trackwise")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/trackwise.log")

	viper.SetDefault("spotify.clientid", "")
	viper.SetDefault("spotify.clientsecret", "")
	viper.SetDefault("spotify.redirecturi", "http://127.0.0.1:8888/callback")
	viper.SetDefault("spotify.tokenfile", "spotify_token.json")

	viper.SetDefault("lastfm.apikey", "")
	viper.SetDefault("lastfm.endpoint", "https://ws.audioscrobbler.com/2.0/")
	viper.SetDefault("lastfm.timeout", 15*time.Second)
	viper.SetDefault("lastfm.cachettl", 1*time.Hour)
	viper.SetDefault("lastfm.ratelimitms", 1000)

	viper.SetDefault("database.sqlite.enabled", true)
	viper.SetDefault("database.sqlite.path", "trackwise.db")
	viper.SetDefault("database.mysql.enabled", false)
	viper.SetDefault("database.mysql.username", "trackwise")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "trackwise")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")

	viper.SetDefault("recommend.count", 30)
	viper.SetDefault("recommend.toptracks", 10)
	viper.SetDefault("recommend.favoritetags", 5)
	viper.SetDefault("recommend.recenttracks", 5)

	viper.SetDefault("enrich.batchsize", 50)
	viper.SetDefault("enrich.similarlimit", 10)
	viper.SetDefault("enrich.pausems", 1000)

	viper.SetDefault("playlist.name", "Trackwise Recommendations")
	viper.SetDefault("playlist.description", "Recommendations curated from your listening history and Last.fm data.")
	viper.SetDefault("playlist.coverimage", "")
	viper.SetDefault("playlist.limit", 30)
	viper.SetDefault("playlist.historyfetch", 50)
}
