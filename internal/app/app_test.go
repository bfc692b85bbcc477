package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/config"
	"ContentCurator/internal/scoring"
)

func testConfig() config.Config {
	runOnStart := false
	return config.Config{
		Database:  config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		Scheduler: config.SchedulerConfig{Interval: time.Hour, RunOnStart: &runOnStart},
		Scoring:   scoring.DefaultRules(),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWiresUseCases(t *testing.T) {
	application, err := New(context.Background(), testConfig(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	assert.NotNil(t, application.Refresh)
	assert.NotNil(t, application.Curation)
	assert.NotNil(t, application.Retrieval)
	assert.NotNil(t, application.Scheduler)

	report, err := application.Refresh.RunRefresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Inserted)

	result, err := application.Retrieval.Latest(context.Background(), "", 0)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.Count)
}

func TestNewRejectsUnknownDriverAndKind(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "oracle"
	_, err := New(context.Background(), cfg, quietLogger())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Sources = []config.SourceConfig{{Name: "mystery", Kind: "carrier-pigeon"}}
	_, err = New(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "carrier-pigeon")
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	application, err := New(context.Background(), testConfig(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewFallbackLoggerHonorsFormat(t *testing.T) {
	cfg := testConfig()
	cfg.Logging = config.LoggingConfig{Level: "warn", Format: "json"}
	cfg.Scheduler.BusinessHours = config.BusinessHours{Enabled: true, StartHour: 9, EndHour: 21, WeekendEvery: 8 * time.Hour}

	application, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	_, isJSON := application.logger.Handler().(*slog.JSONHandler)
	assert.True(t, isJSON, "logging.format json must give a JSON handler")
	assert.False(t, application.logger.Enabled(context.Background(), slog.LevelInfo))
}
