package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
app:
  env: prod
augment:
  api_key: test-key
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, defaultAppLogLevel, cfg.App.LogLevel)
	assert.Equal(t, defaultAugmentAPIURL, cfg.Augment.APIURL)
	assert.Equal(t, defaultAugmentModel, cfg.Augment.Model)
	assert.Equal(t, defaultAugmentTimeout, cfg.Augment.TimeoutSeconds)
	assert.Equal(t, defaultAugmentTTL, cfg.Augment.CacheTTLSecs)
	assert.Equal(t, float64(defaultRiskBalance), cfg.Risk.AccountBalance)
	assert.Equal(t, defaultConfidenceFloor, cfg.Ensemble.ConfidenceFloor)
	assert.Equal(t, defaultConfidenceCeiling, cfg.Ensemble.ConfidenceCeiling)
}

func TestLoadExplicitValuesSurviveDefaults(t *testing.T) {
	path := writeTempConfig(t, `
augment:
  enabled: false
risk:
  account_balance: 500
  risk_percentage: 1
scheduler:
  enabled: true
  interval_minutes: 5
  symbols: [btcusd, BTCUSD, ethusd]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Augment.Enabled)
	assert.Equal(t, 500.0, cfg.Risk.AccountBalance)
	assert.Equal(t, 5, cfg.Scheduler.IntervalMinutes)
	assert.Equal(t, []string{"BTCUSD", "ETHUSD"}, cfg.Scheduler.Symbols)
}

func TestLoadValidatesRiskBounds(t *testing.T) {
	path := writeTempConfig(t, `
risk:
  risk_percentage: 150
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk.risk_percentage")
}

func TestLoadIncludeMerge(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	main := filepath.Join(dir, "main.yaml")
	require.NoError(t, os.WriteFile(base, []byte("app:\n  env: staging\n  log_level: debug\n"), 0o644))
	require.NoError(t, os.WriteFile(main, []byte("include:\n  - base.yaml\napp:\n  env: prod\n"), 0o644))

	cfg, err := Load(main)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestSymbolCatalogLookup(t *testing.T) {
	cat := NewSymbolCatalog()

	btc := cat.Lookup("btcusd")
	assert.Equal(t, "BTCUSD", btc.Symbol)
	assert.Equal(t, 100.0, btc.MinMovement)
	assert.Equal(t, 1.5, btc.GammaMultiplier)

	unknown := cat.Lookup("NZDCHF")
	assert.Equal(t, "NZDCHF", unknown.Symbol)
	assert.Equal(t, 1.0, unknown.VolatilityMultiplier)
	assert.Equal(t, 0.001, unknown.MinMovement)
}

func TestSymbolProfileDerivedSpacing(t *testing.T) {
	cat := NewSymbolCatalog()
	prof := cat.Lookup("UNKNOWN")

	minor, major := prof.PsychSpacing(200)
	assert.InDelta(t, 2.0, minor, 1e-9)
	assert.InDelta(t, 10.0, major, 1e-9)
	assert.InDelta(t, 2.0, prof.StrikeStep(200), 1e-9)
}

func TestSymbolCatalogOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
symbols:
  btcusd:
    min_movement: 250
  solusd:
    volatility_multiplier: 2.5
    min_movement: 0.5
`), 0o644))

	cat, err := NewSymbolCatalogFromFile(path, false)
	require.NoError(t, err)

	btc := cat.Lookup("BTCUSD")
	assert.Equal(t, 250.0, btc.MinMovement)
	assert.Equal(t, 1.5, btc.GammaMultiplier)

	sol := cat.Lookup("SOLUSD")
	assert.Equal(t, 2.5, sol.VolatilityMultiplier)
	assert.Equal(t, 0.5, sol.MinMovement)
}
