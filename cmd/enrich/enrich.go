package enrich

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rmattila/trackwise/internal/conf"
	"github.com/rmattila/trackwise/internal/pipeline"
)

// Command creates the enrich command, which fills in Last.fm metadata for
// one batch of tracks.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Collect Last.fm metadata for stored tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := pipeline.NewApp(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Enrich(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&settings.Enrich.BatchSize, "batch", viper.GetInt("enrich.batchsize"), "Tracks enriched per run")
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		cobra.CheckErr(err)
	}

	return cmd
}
