package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "defects4j", cfg.Defects4J.Binary)
	assert.Equal(t, 10, cfg.Generation.SamplesPerBug)
	assert.Equal(t, 1, cfg.Ranking.AgreementThreshold)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
defects4j:
  binary: /opt/defects4j/framework/bin/defects4j
generation:
  samples_per_bug: 25
ranking:
  agreement_threshold: 3
pipeline:
  workers: 8
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/defects4j/framework/bin/defects4j", cfg.Defects4J.Binary)
	assert.Equal(t, 25, cfg.Generation.SamplesPerBug)
	assert.Equal(t, 3, cfg.Ranking.AgreementThreshold)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	// Untouched keys keep their defaults.
	assert.Equal(t, 120, cfg.Defects4J.CheckoutTimeoutSec)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  workers: -1\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
