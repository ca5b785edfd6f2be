package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data/patient.json", cfg.PatientJSONPath)
	assert.Equal(t, "gpt-4o-mini", cfg.ModelName)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbedModel)
	assert.Equal(t, float32(0.5), cfg.Temperature)
	assert.Equal(t, 5, cfg.TopK)
	assert.True(t, cfg.RAGEnabled)
	assert.Equal(t, "data/index.json", cfg.RAGIndexPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("RAG_ENABLED", "false")
	t.Setenv("TOP_K", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.False(t, cfg.RAGEnabled)
	assert.Equal(t, 3, cfg.TopK)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Temperature: 0.5, TopK: 5}
	}

	require.NoError(t, base().Validate())

	bad := base()
	bad.Temperature = 1.5
	assert.ErrorContains(t, bad.Validate(), "TEMPERATURE")

	bad = base()
	bad.TopK = 0
	assert.ErrorContains(t, bad.Validate(), "TOP_K")

	bad = base()
	bad.EmergencyPIN = "zz"
	assert.ErrorContains(t, bad.Validate(), "not valid hex")

	bad = base()
	bad.EmergencyPIN = "abcd"
	assert.ErrorContains(t, bad.Validate(), "SHA-256")

	ok := base()
	ok.EmergencyPIN = strings.Repeat("ab", 32)
	require.NoError(t, ok.Validate())
}
