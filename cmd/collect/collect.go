package collect

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rmattila/trackwise/internal/conf"
	"github.com/rmattila/trackwise/internal/pipeline"
)

// Command creates the collect command, which pulls one page of recently
// played tracks into the listening history.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect Spotify listening history",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := pipeline.NewApp(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Collect(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&settings.Playlist.HistoryFetch, "limit", viper.GetInt("playlist.historyfetch"), "Recently-played page size")
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		cobra.CheckErr(err)
	}

	return cmd
}
