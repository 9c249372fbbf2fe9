package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
api:
  signals_base: "http://localhost:8090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.ScanInterval())
	assert.Equal(t, 7*24*time.Hour, cfg.PeakMaxAge())
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.API.GammaBase)
	assert.Equal(t, "polyedge.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)

	// Campos no configurados heredan los defaults del dominio.
	p := cfg.PipelineConfig()
	assert.Equal(t, domain.DefaultCalibrationParams(), p.Calibration)
	assert.Equal(t, domain.DefaultKellyParams(), p.Kelly)
	assert.Equal(t, domain.DefaultArbParams(), cfg.ArbParams())
}

func TestLoad_OverridesInheritRest(t *testing.T) {
	path := writeConfig(t, `
engine:
  interval_seconds: 60
kelly:
  multiplier: 0.5
calibration:
  min_samples: 40
  overconf_edge_coef: 0.6
exits:
  stop_loss_percent: 0.30
  lock_profit_min_pct: 0.08
  stale_pnl_max_pct: 0.03
filter:
  categories: [crypto, politics]
api:
  signals_base: "http://localhost:8090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.ScanInterval())

	p := cfg.PipelineConfig()
	assert.Equal(t, 0.5, p.Kelly.Multiplier)
	assert.Equal(t, domain.DefaultKellyParams().MaxPositionSize, p.Kelly.MaxPositionSize)
	assert.Equal(t, 40, p.Calibration.MinSamples)
	assert.Equal(t, domain.DefaultCalibrationParams().LearningRate, p.Calibration.LearningRate)
	assert.Equal(t, 0.6, p.Calibration.OverconfEdgeCoef)
	assert.Equal(t, domain.DefaultCalibrationParams().UnderconfConfCoef, p.Calibration.UnderconfConfCoef)

	e := cfg.ExitParams()
	assert.Equal(t, 0.30, e.StopLossPercent)
	assert.Equal(t, 0.15, e.TrailingStopPercent)
	assert.Equal(t, 0.08, e.LockProfitMinPct)
	assert.Equal(t, 0.03, e.StalePnLMaxPct)
	assert.Equal(t, 1.0, e.LockProfitDays)

	f := cfg.FilterParams()
	require.Len(t, f.Categories, 2)
	assert.Equal(t, domain.CategoryCrypto, f.Categories[0])
}

func TestLoad_MissingSignalsBase(t *testing.T) {
	path := writeConfig(t, `
engine:
  interval_seconds: 60
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signals_base")
}

func TestLoad_InvalidKellyMultiplier(t *testing.T) {
	path := writeConfig(t, `
api:
  signals_base: "http://localhost:8090"
kelly:
  multiplier: 1.5
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kelly.multiplier")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORAGE_DSN", ":memory:")

	path := writeConfig(t, `
api:
  signals_base: "http://localhost:8090"
log:
  level: warn
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
}
