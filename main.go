package main

import (
	"fmt"
	"os"

	"github.com/rmattila/trackwise/cmd"
	"github.com/rmattila/trackwise/internal/conf"
	"github.com/rmattila/trackwise/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logPath := ""
	if settings.Main.Log.Enabled {
		logPath = settings.Main.Log.Path
	}
	logging.Init(settings.Debug, logPath)

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
