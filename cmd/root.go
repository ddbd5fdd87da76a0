package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rmattila/trackwise/cmd/collect"
	"github.com/rmattila/trackwise/cmd/enrich"
	"github.com/rmattila/trackwise/cmd/pipeline"
	"github.com/rmattila/trackwise/cmd/publish"
	"github.com/rmattila/trackwise/cmd/recommend"
	"github.com/rmattila/trackwise/internal/conf"
	"github.com/rmattila/trackwise/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trackwise",
		Short: "Trackwise CLI",
		Long:  "Personal music recommendation pipeline over Spotify listening history and Last.fm metadata.",
		// Logging is initialized before flag parsing, so a --debug given on
		// the command line has to raise the level here.
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if settings.Debug {
				logging.SetLevel(slog.LevelDebug)
			}
		},
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		collect.Command(settings),
		enrich.Command(settings),
		recommend.Command(settings),
		publish.Command(settings),
		pipeline.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags configures the global flags for the root command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVar(&settings.Debug, "debug", viper.GetBool("debug"), "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.Database.SQLite.Path, "db", viper.GetString("database.sqlite.path"), "Path of the SQLite database file")

	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
