package recommend

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rmattila/trackwise/internal/conf"
	"github.com/rmattila/trackwise/internal/pipeline"
)

// Command creates the recommend command and its manual "add" subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var sample bool

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Generate track recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := pipeline.NewApp(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Recommend(cmd.Context(), sample)
		},
	}

	cmd.Flags().BoolVar(&sample, "sample", false, "Use the sampling recommender (genre seeds, top tracks, new releases)")
	cmd.Flags().IntVar(&settings.Recommend.Count, "count", viper.GetInt("recommend.count"), "Target number of recommendations")
	if err := viper.BindPFlag("recommend.count", cmd.Flags().Lookup("count")); err != nil {
		cobra.CheckErr(err)
	}

	cmd.AddCommand(addCommand(settings))
	return cmd
}

// addCommand creates the manual single-recommendation mode.
func addCommand(settings *conf.Settings) *cobra.Command {
	var (
		rating float64
		source string
	)

	cmd := &cobra.Command{
		Use:   "add [track-id]",
		Short: "Add a single recommendation by provider track id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := pipeline.NewApp(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.AddRecommendation(cmd.Context(), args[0], rating, source)
		},
	}

	cmd.Flags().Float64Var(&rating, "rating", 0.8, "Confidence rating between 0.0 and 1.0")
	cmd.Flags().StringVar(&source, "source", "manual", "Source tag stored on the recommendation")

	return cmd
}
