package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/polyedge/config"
	"github.com/alejandrodnm/polyedge/internal/adapters/marketdata"
	"github.com/alejandrodnm/polyedge/internal/adapters/notify"
	"github.com/alejandrodnm/polyedge/internal/adapters/storage"
	"github.com/alejandrodnm/polyedge/internal/application/engine"
	"github.com/alejandrodnm/polyedge/internal/application/pipeline"
	"github.com/alejandrodnm/polyedge/internal/application/relscan"
	"github.com/alejandrodnm/polyedge/internal/domain"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one analysis cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")
	report := flag.Bool("report", false, "print risk metrics over resolved signals and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("polyedge starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"once", *once,
		"report", *report,
	)

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *report {
		runReport(ctx, store, notifier)
		return
	}

	client := marketdata.NewClient(cfg.API.GammaBase, cfg.API.SignalsBase)
	provider := marketdata.NewProvider(client, cfg.Filter.MinAbsEdge)
	positions := marketdata.NewPositionClient(client)

	patterns := relscan.DefaultPatterns()
	if cfg.Arbitrage.PatternsFile != "" {
		patterns, err = relscan.LoadPatterns(cfg.Arbitrage.PatternsFile)
		if err != nil {
			slog.Error("failed to load relationship patterns", "err", err, "path", cfg.Arbitrage.PatternsFile)
			os.Exit(1)
		}
	}
	rels := relscan.NewScanner(relscan.NewClassifier(patterns), cfg.ArbParams())
	rels.SetMaxMarkets(cfg.Arbitrage.MaxMarkets)

	pipeCfg := cfg.PipelineConfig()
	calibrator := pipeline.NewCalibrator(store, pipeCfg.Calibration)
	pipe := pipeline.New(pipeCfg, calibrator)

	eng := engine.New(
		engine.Config{
			ScanInterval:    cfg.ScanInterval(),
			Filter:          cfg.FilterParams(),
			AnalysisWorkers: cfg.Engine.AnalysisWorkers,
			RunOnce:         *once,
			PeakMaxAge:      cfg.PeakMaxAge(),
		},
		provider,
		positions,
		store,
		store,
		notifier,
		pipe,
		rels,
		cfg.ExitParams(),
	)

	if err := eng.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("polyedge stopped cleanly")
}

// runReport imprime las métricas de riesgo de los últimos 90 días de señales
// resueltas. No toca la red: solo lee la base local.
func runReport(ctx context.Context, store *storage.SQLiteStore, notifier *notify.Console) {
	since := time.Now().AddDate(0, 0, -90)
	returns, err := store.ResolvedReturns(ctx, since)
	if err != nil {
		slog.Error("failed to load resolved returns", "err", err)
		os.Exit(1)
	}
	notifier.PrintRiskReport(returns, domain.DefaultMetricsParams())
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
