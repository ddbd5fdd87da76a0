package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerExecutesStagesInOrder(t *testing.T) {
	var order []string
	stages := []Stage{
		{Name: "collect", Run: func(context.Context) error { order = append(order, "collect"); return nil }},
		{Name: "enrich", Run: func(context.Context) error { order = append(order, "enrich"); return nil }},
		{Name: "publish", Run: func(context.Context) error { order = append(order, "publish"); return nil }},
	}

	runner := NewRunner(stages, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, []string{"collect", "enrich", "publish"}, order)
}

func TestRunnerContinuesPastFailure(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	stages := []Stage{
		{Name: "collect", Run: func(context.Context) error { order = append(order, "collect"); return boom }},
		{Name: "enrich", Run: func(context.Context) error { order = append(order, "enrich"); return nil }},
	}

	runner := NewRunner(stages, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := runner.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stage collect")
	assert.Equal(t, []string{"collect", "enrich"}, order,
		"A failed stage must not stop later stages")
}

func TestRunnerCollectsAllFailures(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	stages := []Stage{
		{Name: "one", Run: func(context.Context) error { return errA }},
		{Name: "two", Run: func(context.Context) error { return errB }},
	}

	runner := NewRunner(stages, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := runner.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestRunnerHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ran := false
	stages := []Stage{
		{Name: "collect", Run: func(context.Context) error { cancel(); return nil }},
		{Name: "enrich", Run: func(context.Context) error { ran = true; return nil }},
	}

	runner := NewRunner(stages, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := runner.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran, "Stages after cancellation must not run")
}
