package pipeline

import (
	"github.com/spf13/cobra"

	"github.com/rmattila/trackwise/internal/conf"
	internal "github.com/rmattila/trackwise/internal/pipeline"
)

// Command creates the pipeline command, which runs every stage in order:
// collect, enrich, recommend, publish.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Run the full recommendation pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := internal.NewApp(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer app.Close()

			runner := internal.NewRunner(app.Stages(), nil)
			return runner.Run(cmd.Context())
		},
	}
}
