package config

import (
	"testing"

	"github.com/bracketpulse/tournament-stats/elo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKFactorRules(t *testing.T) {
	rules, err := parseKFactorRules("1600:24, 2100:16")
	require.NoError(t, err)
	assert.Equal(t, []elo.KFactorRule{
		{Threshold: 1600, K: 24},
		{Threshold: 2100, K: 16},
	}, rules)
}

func TestParseKFactorRules_Empty(t *testing.T) {
	rules, err := parseKFactorRules("")
	require.NoError(t, err)
	assert.Nil(t, rules)
}

func TestParseKFactorRules_Malformed(t *testing.T) {
	for _, raw := range []string{"1600", "1600:abc", "abc:24", "1600:24,1500:16", "1600:24,1600:16"} {
		_, err := parseKFactorRules(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stats")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$14$hash")
	t.Setenv("CHALLONGE_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 1200, cfg.EloStartingRating)
	assert.Equal(t, float64(32), cfg.EloDefaultK)
	assert.Equal(t, "@every 1m", cfg.SyncCronSpec)
	assert.False(t, cfg.EloLegacyThreeGameMode)
}
