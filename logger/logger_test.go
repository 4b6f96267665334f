package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/config"
)

func TestNewSplitsByLevel(t *testing.T) {
	cfg := config.CreateDefaultConfig()
	cfg.Options.LogDir = t.TempDir()

	log, closer, err := New(cfg)
	require.NoError(t, err)

	log.Debug().Msg("debug-line")
	log.Info().Msg("info-line")
	log.Error().Msg("error-line")
	require.NoError(t, closer.Close())

	read := func(name string) string {
		data, err := os.ReadFile(filepath.Join(cfg.Options.LogDir, name))
		require.NoError(t, err)
		return string(data)
	}

	debug := read("debug_log.log")
	assert.Contains(t, debug, "debug-line")
	assert.Contains(t, debug, "info-line")
	assert.Contains(t, debug, "error-line")

	main := read("main_log.log")
	assert.NotContains(t, main, "debug-line")
	assert.Contains(t, main, "info-line")
	assert.Contains(t, main, "error-line")

	errs := read("error_log.log")
	assert.NotContains(t, errs, "info-line")
	assert.Contains(t, errs, "error-line")
}
