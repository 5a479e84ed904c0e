package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("CURRENCY", " qar ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "QAR", cfg.Currency)
	assert.Equal(t, "0 7 * * *", cfg.AlertsCron)
	assert.Equal(t, int32(10), cfg.PGMaxConns)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadCurrency(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("CURRENCY", "RIYAL")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}
