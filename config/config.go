package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polyedge/internal/application/exits"
	"github.com/alejandrodnm/polyedge/internal/application/pipeline"
	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Config es la configuración completa del motor de decisión.
type Config struct {
	Engine      EngineConfig      `yaml:"engine"`
	Filter      FilterConfig      `yaml:"filter"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Timing      TimingConfig      `yaml:"timing"`
	Kelly       KellyConfig       `yaml:"kelly"`
	Exits       ExitsConfig       `yaml:"exits"`
	Arbitrage   ArbitrageConfig   `yaml:"arbitrage"`
	API         APIConfig         `yaml:"api"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
}

// EngineConfig controla el bucle de ciclos.
type EngineConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	AnalysisWorkers int `yaml:"analysis_workers"` // 0 = NumCPU*2
	PeakMaxAgeHours int `yaml:"peak_max_age_hours"`
}

// FilterConfig contiene el pre-filtrado de candidatos.
type FilterConfig struct {
	MinLiquidity         float64  `yaml:"min_liquidity"`
	MinAbsEdge           float64  `yaml:"min_abs_edge"`
	MinHoursToResolution float64  `yaml:"min_hours_to_resolution"`
	Categories           []string `yaml:"categories"` // vacío = todas
	MaxCandidates        int      `yaml:"max_candidates"`
}

// CalibrationConfig ajusta la calibración adaptativa. Los ceros heredan
// los defaults del dominio.
type CalibrationConfig struct {
	WindowDays   int     `yaml:"window_days"`
	MaxRecords   int     `yaml:"max_records"`
	MinSamples   int     `yaml:"min_samples"`
	LearningRate float64 `yaml:"learning_rate"`
	DeadZone     float64 `yaml:"dead_zone"`
	// Coeficientes de ajuste por sobre/infraconfianza.
	OverconfConfCoef  float64 `yaml:"overconf_conf_coef"`
	OverconfEdgeCoef  float64 `yaml:"overconf_edge_coef"`
	UnderconfConfCoef float64 `yaml:"underconf_conf_coef"`
	UnderconfEdgeCoef float64 `yaml:"underconf_edge_coef"`
}

// TimingConfig ajusta el pesado temporal.
type TimingConfig struct {
	BaseMinEdge     float64 `yaml:"base_min_edge"`
	MaxMinEdge      float64 `yaml:"max_min_edge"`
	NoTradeDays     float64 `yaml:"no_trade_days"`
	WaitHorizonDays float64 `yaml:"wait_horizon_days"`
}

// KellyConfig ajusta el sizer.
type KellyConfig struct {
	Multiplier      float64 `yaml:"multiplier"`
	MaxPositionSize float64 `yaml:"max_position_size"`
	MinLiquidity    float64 `yaml:"min_liquidity"`
	FullLiquidity   float64 `yaml:"full_liquidity"`
	EdgeBuffer      float64 `yaml:"edge_buffer"`
}

// ExitsConfig ajusta las condiciones de salida de posiciones abiertas.
type ExitsConfig struct {
	StopLossPercent     float64 `yaml:"stop_loss_percent"`
	TrailingStopPercent float64 `yaml:"trailing_stop_percent"`
	TrailingArmPercent  float64 `yaml:"trailing_arm_percent"`
	ProfitTargetPercent float64 `yaml:"profit_target_percent"`
	TimeDecayDays       float64 `yaml:"time_decay_days"`
	EdgeReversalMin     float64 `yaml:"edge_reversal_min"`
	LiquidityFloor      float64 `yaml:"liquidity_floor"`
	MaxLiquidityShare   float64 `yaml:"max_liquidity_share"`
	ConfidenceDropPts   float64 `yaml:"confidence_drop_pts"`
	LockProfitMinPct    float64 `yaml:"lock_profit_min_pct"`
	LockProfitDays      float64 `yaml:"lock_profit_days"`
	StalenessDays       float64 `yaml:"staleness_days"`
	StalePnLMaxPct      float64 `yaml:"stale_pnl_max_pct"`
}

// ArbitrageConfig ajusta la detección de relaciones y arbitraje.
type ArbitrageConfig struct {
	MinDeviation float64 `yaml:"min_deviation"`
	MaxMarkets   int     `yaml:"max_markets"`
	PatternsFile string  `yaml:"patterns_file"` // vacío = patrones por defecto
}

// APIConfig contiene los base URLs de las APIs externas.
type APIConfig struct {
	GammaBase   string `yaml:"gamma_base"`
	SignalsBase string `yaml:"signals_base"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Engine.IntervalSeconds) * time.Second
}

// PeakMaxAge devuelve la retención de peaks del trailing stop.
func (c *Config) PeakMaxAge() time.Duration {
	return time.Duration(c.Engine.PeakMaxAgeHours) * time.Hour
}

// PipelineConfig materializa los parámetros del pipeline de entrada,
// heredando los defaults del dominio para cualquier campo no configurado.
func (c *Config) PipelineConfig() pipeline.Config {
	p := pipeline.DefaultConfig()

	if c.Calibration.WindowDays > 0 {
		p.Calibration.WindowDays = c.Calibration.WindowDays
	}
	if c.Calibration.MaxRecords > 0 {
		p.Calibration.MaxRecords = c.Calibration.MaxRecords
	}
	if c.Calibration.MinSamples > 0 {
		p.Calibration.MinSamples = c.Calibration.MinSamples
	}
	if c.Calibration.LearningRate > 0 {
		p.Calibration.LearningRate = c.Calibration.LearningRate
	}
	if c.Calibration.DeadZone > 0 {
		p.Calibration.DeadZone = c.Calibration.DeadZone
	}
	if c.Calibration.OverconfConfCoef > 0 {
		p.Calibration.OverconfConfCoef = c.Calibration.OverconfConfCoef
	}
	if c.Calibration.OverconfEdgeCoef > 0 {
		p.Calibration.OverconfEdgeCoef = c.Calibration.OverconfEdgeCoef
	}
	if c.Calibration.UnderconfConfCoef > 0 {
		p.Calibration.UnderconfConfCoef = c.Calibration.UnderconfConfCoef
	}
	if c.Calibration.UnderconfEdgeCoef > 0 {
		p.Calibration.UnderconfEdgeCoef = c.Calibration.UnderconfEdgeCoef
	}

	if c.Timing.BaseMinEdge > 0 {
		p.Time.BaseMinEdge = c.Timing.BaseMinEdge
	}
	if c.Timing.MaxMinEdge > 0 {
		p.Time.MaxMinEdge = c.Timing.MaxMinEdge
	}
	if c.Timing.NoTradeDays > 0 {
		p.Time.NoTradeDays = c.Timing.NoTradeDays
	}
	if c.Timing.WaitHorizonDays > 0 {
		p.Time.WaitHorizonDays = c.Timing.WaitHorizonDays
	}

	if c.Kelly.Multiplier > 0 {
		p.Kelly.Multiplier = c.Kelly.Multiplier
	}
	if c.Kelly.MaxPositionSize > 0 {
		p.Kelly.MaxPositionSize = c.Kelly.MaxPositionSize
	}
	if c.Kelly.MinLiquidity > 0 {
		p.Kelly.MinLiquidity = c.Kelly.MinLiquidity
	}
	if c.Kelly.FullLiquidity > 0 {
		p.Kelly.FullLiquidity = c.Kelly.FullLiquidity
	}
	if c.Kelly.EdgeBuffer > 0 {
		p.Kelly.EdgeBuffer = c.Kelly.EdgeBuffer
	}

	return p
}

// FilterParams materializa el pre-filtro de candidatos.
func (c *Config) FilterParams() pipeline.FilterConfig {
	f := pipeline.DefaultFilterConfig()
	if c.Filter.MinLiquidity > 0 {
		f.MinLiquidity = c.Filter.MinLiquidity
	}
	if c.Filter.MinAbsEdge > 0 {
		f.MinAbsEdge = c.Filter.MinAbsEdge
	}
	if c.Filter.MinHoursToResolution > 0 {
		f.MinHoursToResolution = c.Filter.MinHoursToResolution
	}
	if c.Filter.MaxCandidates > 0 {
		f.MaxCandidates = c.Filter.MaxCandidates
	}
	for _, cat := range c.Filter.Categories {
		f.Categories = append(f.Categories, domain.Category(cat))
	}
	return f
}

// ExitParams materializa los umbrales de salida.
func (c *Config) ExitParams() exits.Params {
	p := exits.DefaultParams()
	if c.Exits.StopLossPercent > 0 {
		p.StopLossPercent = c.Exits.StopLossPercent
	}
	if c.Exits.TrailingStopPercent > 0 {
		p.TrailingStopPercent = c.Exits.TrailingStopPercent
	}
	if c.Exits.TrailingArmPercent > 0 {
		p.TrailingArmPercent = c.Exits.TrailingArmPercent
	}
	if c.Exits.ProfitTargetPercent > 0 {
		p.ProfitTargetPercent = c.Exits.ProfitTargetPercent
	}
	if c.Exits.TimeDecayDays > 0 {
		p.TimeDecayDays = c.Exits.TimeDecayDays
	}
	if c.Exits.EdgeReversalMin > 0 {
		p.EdgeReversalMin = c.Exits.EdgeReversalMin
	}
	if c.Exits.LiquidityFloor > 0 {
		p.LiquidityFloor = c.Exits.LiquidityFloor
	}
	if c.Exits.MaxLiquidityShare > 0 {
		p.MaxLiquidityShare = c.Exits.MaxLiquidityShare
	}
	if c.Exits.ConfidenceDropPts > 0 {
		p.ConfidenceDropPts = c.Exits.ConfidenceDropPts
	}
	if c.Exits.LockProfitMinPct > 0 {
		p.LockProfitMinPct = c.Exits.LockProfitMinPct
	}
	if c.Exits.LockProfitDays > 0 {
		p.LockProfitDays = c.Exits.LockProfitDays
	}
	if c.Exits.StalenessDays > 0 {
		p.StalenessDays = c.Exits.StalenessDays
	}
	if c.Exits.StalePnLMaxPct > 0 {
		p.StalePnLMaxPct = c.Exits.StalePnLMaxPct
	}
	return p
}

// ArbParams materializa los umbrales de arbitraje.
func (c *Config) ArbParams() domain.ArbParams {
	p := domain.DefaultArbParams()
	if c.Arbitrage.MinDeviation > 0 {
		p.MinDeviation = c.Arbitrage.MinDeviation
	}
	return p
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("GAMMA_BASE"); v != "" {
		cfg.API.GammaBase = v
	}
	if v := os.Getenv("SIGNALS_BASE"); v != "" {
		cfg.API.SignalsBase = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.IntervalSeconds <= 0 {
		cfg.Engine.IntervalSeconds = 300
	}
	if cfg.Engine.PeakMaxAgeHours <= 0 {
		cfg.Engine.PeakMaxAgeHours = 168 // 7 días
	}
	if cfg.Arbitrage.MaxMarkets <= 0 {
		cfg.Arbitrage.MaxMarkets = 100
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyedge.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// validate rechaza configuraciones internamente inconsistentes que los
// defaults no pueden arreglar.
func (c *Config) validate() error {
	if c.API.SignalsBase == "" {
		return fmt.Errorf("api.signals_base is required (model signals + position service)")
	}
	if c.Filter.MinAbsEdge < 0 || c.Filter.MinAbsEdge >= 1 {
		return fmt.Errorf("filter.min_abs_edge must be in [0, 1), got %.3f", c.Filter.MinAbsEdge)
	}
	if c.Kelly.Multiplier < 0 || c.Kelly.Multiplier > 1 {
		return fmt.Errorf("kelly.multiplier must be in [0, 1], got %.3f", c.Kelly.Multiplier)
	}
	if c.Arbitrage.MinDeviation < 0 || c.Arbitrage.MinDeviation >= 0.5 {
		return fmt.Errorf("arbitrage.min_deviation must be in [0, 0.5), got %.3f", c.Arbitrage.MinDeviation)
	}
	return nil
}
