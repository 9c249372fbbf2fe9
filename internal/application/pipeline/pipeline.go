package pipeline

// pipeline.go — el pipeline de decisión ajustado por riesgo.
//
// Un candidato (mercado + probabilidad cruda del modelo) atraviesa, en orden:
// calibración adaptativa → pesado temporal → Kelly sizer → ajuste por
// correlación. El primer check que falla tipifica el rechazo; si todos pasan
// sale una recomendación dimensionada.

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Config agrupa los parámetros de los cuatro pasos del pipeline.
type Config struct {
	Calibration domain.CalibrationParams
	Time        domain.TimeWeightParams
	Kelly       domain.KellyParams
}

// DefaultConfig devuelve la parametrización estándar de todos los pasos.
func DefaultConfig() Config {
	return Config{
		Calibration: domain.DefaultCalibrationParams(),
		Time:        domain.DefaultTimeWeightParams(),
		Kelly:       domain.DefaultKellyParams(),
	}
}

// Pipeline evalúa candidatos. Stateless y seguro para uso concurrente: todo
// el estado compartido vive detrás del Calibrator (solo lectura de snapshots).
type Pipeline struct {
	cfg        Config
	calibrator *Calibrator
	now        func() time.Time
}

// New crea un Pipeline con el calibrator dado.
func New(cfg Config, calibrator *Calibrator) *Pipeline {
	return &Pipeline{cfg: cfg, calibrator: calibrator, now: time.Now}
}

// Evaluate produce la recomendación final para un candidato, dado el conjunto
// de posiciones ya abiertas relacionadas con su mercado.
func (p *Pipeline) Evaluate(ctx context.Context, sig domain.MarketSignal, related []domain.RelatedHolding) domain.Recommendation {
	now := p.now()
	rec := domain.Recommendation{
		ID:            uuid.NewString(),
		GeneratedAt:   now,
		Signal:        sig,
		RawEdge:       sig.Edge,
		RawConfidence: sig.Confidence,
	}

	if !sig.Action.IsTrade() {
		rec.Reject = domain.RejectEdge
		return rec
	}

	// 1. Calibración adaptativa (fail-open).
	cal := p.calibrator.Calibrate(ctx, sig)
	rec.Calibration = cal
	rec.Signal.Edge = cal.Edge
	rec.Signal.Confidence = cal.Confidence
	// El precio es un hecho del mercado: la calibración mueve la
	// probabilidad del modelo, edge = modelProb - price se mantiene.
	rec.Signal.ModelProb = sig.Price + cal.Edge

	// 2. Pesado temporal sobre el edge calibrado. Con baseSize unitario,
	// AdjustedSize actúa como factor de escala para el Kelly posterior.
	adj := domain.ApplyTimeWeight(
		cal.Edge, 1.0,
		sig.Category,
		sig.DaysToResolution(now),
		sig.HasResolution(),
		p.cfg.Time,
	)
	rec.Time = adj
	if adj.Decision != domain.DecisionAccept {
		rec.Reject = domain.RejectReasonFromDecision(adj.Decision)
		return rec
	}
	if !adj.ShouldTrade {
		// Tier WAIT: señal válida pero sin entrada todavía.
		rec.Reject = domain.RejectTiming
		return rec
	}

	// 3. Kelly sizer sobre la señal calibrada.
	kelly := domain.KellySizeForSignal(rec.Signal, p.cfg.Kelly)
	rec.KellyBase = kelly
	if kelly <= 0 {
		rec.Reject = domain.RejectSize
		return rec
	}

	// 4. Pesado temporal del tamaño + ajuste por exposición correlacionada.
	sized := kelly * adj.AdjustedSize
	final := domain.CorrelationAdjustedSize(sized, related)
	rec.FinalSize = final
	if final <= 0 {
		rec.Reject = domain.RejectSize
		return rec
	}

	rec.Accepted = true
	return rec
}

// ToOutcomeRecord construye el record de historia para una recomendación
// aceptada (outcome pendiente de resolución).
func ToOutcomeRecord(rec domain.Recommendation) domain.OutcomeRecord {
	return domain.OutcomeRecord{
		ID:         rec.ID,
		MarketID:   rec.Signal.MarketID,
		Category:   rec.Signal.Category,
		Action:     rec.Signal.Action,
		Edge:       rec.Signal.Edge,
		Confidence: rec.Signal.Confidence,
		EmittedAt:  rec.GeneratedAt,
	}
}
