package cmd

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmattila/trackwise/internal/conf"
	"github.com/rmattila/trackwise/internal/logging"
)

func TestDebugFlagRaisesLogLevel(t *testing.T) {
	logging.Init(false, "")
	t.Cleanup(func() { logging.SetLevel(slog.LevelInfo) })

	settings := &conf.Settings{}
	rootCmd := RootCommand(settings)

	require.NoError(t, rootCmd.PersistentFlags().Set("debug", "true"))
	require.True(t, settings.Debug, "The flag writes straight into settings")
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug),
		"Parsing alone must not change the level")

	rootCmd.PersistentPreRun(rootCmd, nil)
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestRootCommandSubcommands(t *testing.T) {
	rootCmd := RootCommand(&conf.Settings{})

	var names []string
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"collect", "enrich", "recommend", "publish", "pipeline"} {
		assert.Contains(t, names, want)
	}
}
