package publish

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rmattila/trackwise/internal/conf"
	"github.com/rmattila/trackwise/internal/pipeline"
)

// Command creates the publish command, which syncs the recommendation
// playlist and optionally its cover image.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Update the Spotify recommendation playlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := pipeline.NewApp(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Publish(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&settings.Playlist.Name, "name", viper.GetString("playlist.name"), "Playlist name")
	cmd.Flags().StringVar(&settings.Playlist.CoverImage, "cover", viper.GetString("playlist.coverimage"), "Path of the cover image to upload")
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		cobra.CheckErr(err)
	}

	return cmd
}
