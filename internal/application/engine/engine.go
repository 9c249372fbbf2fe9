package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyedge/internal/application/exits"
	"github.com/alejandrodnm/polyedge/internal/application/pipeline"
	"github.com/alejandrodnm/polyedge/internal/application/relscan"
	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/ports"
)

// Config contiene la configuración del loop de análisis.
type Config struct {
	ScanInterval    time.Duration
	Filter          pipeline.FilterConfig
	AnalysisWorkers int // goroutines para evaluación paralela (0 = NumCPU*2)
	RunOnce         bool
	PeakMaxAge      time.Duration // retención de peaks de posiciones que ya no vemos
}

// Engine es el orquestador: cada ciclo evalúa candidatos nuevos por el
// pipeline de entrada y, de forma independiente, clasifica salidas sobre
// las posiciones abiertas. Ambos caminos comparten el snapshot de mercado
// del ciclo y nada más.
type Engine struct {
	cfg       Config
	markets   ports.MarketProvider
	positions ports.PositionStore
	history   ports.OutcomeHistory
	storage   ports.Storage
	notifier  ports.Notifier

	pipe    *pipeline.Pipeline
	filter  *pipeline.Filter
	rels    *relscan.Scanner
	exits   *exits.Evaluator
	tracker *exits.PeakTracker

	previousArbKeys map[string]bool // arbitrajes del ciclo anterior para alertas
	previousOpen    map[string]bool // mercados con posición abierta en el ciclo anterior
}

// New crea un Engine con todas las dependencias inyectadas desde cmd/.
func New(
	cfg Config,
	markets ports.MarketProvider,
	positions ports.PositionStore,
	history ports.OutcomeHistory,
	storage ports.Storage,
	notifier ports.Notifier,
	pipe *pipeline.Pipeline,
	rels *relscan.Scanner,
	exitParams exits.Params,
) *Engine {
	tracker := exits.NewPeakTracker()
	if cfg.PeakMaxAge <= 0 {
		cfg.PeakMaxAge = 7 * 24 * time.Hour
	}
	return &Engine{
		cfg:             cfg,
		markets:         markets,
		positions:       positions,
		history:         history,
		storage:         storage,
		notifier:        notifier,
		pipe:            pipe,
		filter:          pipeline.NewFilter(cfg.Filter),
		rels:            rels,
		exits:           exits.NewEvaluator(exitParams, tracker),
		tracker:         tracker,
		previousArbKeys: make(map[string]bool),
		previousOpen:    make(map[string]bool),
	}
}

// Run ejecuta el loop de análisis hasta que el contexto se cancele.
// Con cfg.RunOnce solo ejecuta un ciclo.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"interval", e.cfg.ScanInterval,
		"run_once", e.cfg.RunOnce,
		"workers", e.cfg.AnalysisWorkers,
	)

	if err := e.runCycle(ctx); err != nil {
		slog.Error("analysis cycle failed", "err", err)
		if e.cfg.RunOnce {
			return err
		}
	}

	if e.cfg.RunOnce {
		return nil
	}

	ticker := time.NewTicker(e.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped")
			return nil
		case <-ticker.C:
			if err := e.runCycle(ctx); err != nil {
				slog.Error("analysis cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve el informe.
func (e *Engine) RunOnce(ctx context.Context) (ports.CycleReport, error) {
	return e.cycle(ctx)
}

// runCycle ejecuta un ciclo completo y notifica/persiste los resultados.
func (e *Engine) runCycle(ctx context.Context) error {
	start := time.Now()

	report, err := e.cycle(ctx)
	if err != nil {
		return err
	}

	e.emitArbAlerts(report.Arbitrages)

	if err := e.notifier.Notify(ctx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	accepted := pipeline.Accepted(report.Recommendations)
	if e.storage != nil {
		if err := e.storage.SaveCycle(ctx, accepted); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}

	// Cada recomendación aceptada entra en la historia de resultados para
	// que la calibración aprenda de ella cuando el mercado resuelva.
	for _, rec := range accepted {
		if err := e.history.RecordSignal(ctx, pipeline.ToOutcomeRecord(rec)); err != nil {
			slog.Warn("history error", "market", rec.Signal.MarketID, "err", err)
		}
	}

	slog.Info("analysis cycle complete",
		"recommendations", len(accepted),
		"rejected", len(report.Recommendations)-len(accepted),
		"arbitrages", len(report.Arbitrages),
		"exits", len(report.Exits),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle hace fetch → filter → relscan → pipeline → exits y arma el informe.
func (e *Engine) cycle(ctx context.Context) (ports.CycleReport, error) {
	candidates, err := e.markets.FetchCandidates(ctx)
	if err != nil {
		return ports.CycleReport{}, fmt.Errorf("engine.cycle: fetch candidates: %w", err)
	}

	filtered := e.filter.Apply(candidates)
	scan := e.rels.Scan(filtered)

	open, err := e.positions.OpenPositions(ctx)
	if err != nil {
		return ports.CycleReport{}, fmt.Errorf("engine.cycle: open positions: %w", err)
	}

	// Evaluación paralela de candidatos, con la exposición relacionada de
	// cada uno resuelta contra las posiciones abiertas.
	relatedFor := func(marketID string) []domain.RelatedHolding {
		for _, c := range filtered {
			if c.MarketID == marketID {
				return e.rels.RelatedFor(c, open)
			}
		}
		return nil
	}
	recs := pipeline.EvaluateAll(ctx, e.pipe, filtered, relatedFor, e.cfg.AnalysisWorkers)

	exitRecs := e.scanExits(ctx, open, candidates)

	return ports.CycleReport{
		Recommendations: recs,
		Arbitrages:      scan.Opportunities,
		Exits:           exitRecs,
	}, nil
}

// scanExits clasifica las posiciones abiertas contra el snapshot de mercado
// del ciclo (candidatos sin filtrar: una posición puede estar en un mercado
// que ya no pasa el filtro de entrada).
func (e *Engine) scanExits(ctx context.Context, open []domain.Position, candidates []domain.MarketSignal) []domain.ExitRecommendation {
	e.releaseClosedPeaks(open)
	if len(open) == 0 {
		return nil
	}

	states := make(map[string]exits.MarketState, len(candidates))
	for _, c := range candidates {
		states[c.MarketID] = exits.MarketState{
			CurrentPrice:  c.Price,
			Liquidity:     c.Liquidity,
			Edge:          c.Edge,
			Confidence:    c.Confidence,
			HasReanalysis: true,
		}
	}

	all := e.exits.EvaluateAll(open, states)
	triggered := exits.Exits(all)

	if len(triggered) > 0 {
		if err := e.positions.SubmitExits(ctx, triggered); err != nil {
			slog.Warn("position store error", "err", err)
		}
	}

	if removed := e.tracker.Prune(e.cfg.PeakMaxAge); removed > 0 {
		slog.Debug("pruned stale peak entries", "removed", removed)
	}
	return triggered
}

// releaseClosedPeaks libera el peak de P&L de las posiciones que desaparecieron
// desde el ciclo anterior. Sin esto, reentrar al mismo mercado dentro de la
// ventana de retención heredaría el peak de la posición anterior y el trailing
// stop dispararía en falso sobre la posición nueva.
func (e *Engine) releaseClosedPeaks(open []domain.Position) {
	current := make(map[string]bool, len(open))
	for _, pos := range open {
		current[pos.MarketID] = true
	}

	for marketID := range e.previousOpen {
		if !current[marketID] {
			e.exits.PositionClosed(marketID)
			slog.Debug("released peak for closed position", "market", marketID)
		}
	}
	e.previousOpen = current
}

// emitArbAlerts registra alertas para arbitrajes nuevos (no vistos en el
// ciclo anterior). Las violaciones grandes usan nivel ERROR para máxima
// visibilidad en consola.
func (e *Engine) emitArbAlerts(arbs []domain.ArbOpportunity) {
	newKeys := make(map[string]bool, len(arbs))

	for _, arb := range arbs {
		key := domain.PairKey(arb.Relationship.MarketA, arb.Relationship.MarketB)
		newKeys[key] = true

		if e.previousArbKeys[key] {
			continue // ya conocido
		}

		attrs := []any{
			"type", arb.Relationship.Type,
			"market_a", arb.Relationship.MarketA,
			"market_b", arb.Relationship.MarketB,
			"price_a", fmt.Sprintf("%.4f", arb.PriceA),
			"price_b", fmt.Sprintf("%.4f", arb.PriceB),
			"deviation", fmt.Sprintf("%.4f", arb.Deviation),
			"direction", arb.Direction,
			"expected_profit", fmt.Sprintf("%.4f", arb.ExpectedProfit),
			"confidence", fmt.Sprintf("%.0f%%", arb.Confidence),
		}

		if arb.ExpectedProfit >= 0.10 {
			slog.Error("*** ARBITRAGE ***", attrs...)
		} else {
			slog.Warn("new arbitrage candidate", attrs...)
		}
	}

	e.previousArbKeys = newKeys
}
