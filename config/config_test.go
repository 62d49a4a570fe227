package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stigmergy")
	t.Setenv("STIG_LISTEN_ADDR", "")
	t.Setenv("STIG_SAVEFILE_PATH", "")
	t.Setenv("STIG_LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/stigmergy", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "./stigmergy.jsonl", cfg.SavefilePath)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stigmergy")
	t.Setenv("STIG_LOG_LEVEL", "not-a-level")
	_, err := Load()
	require.Error(t, err)
}
