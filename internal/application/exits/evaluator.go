package exits

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Params son los umbrales del clasificador de salidas. Los porcentajes de
// P&L se expresan como fracciones (0.20 = 20%).
type Params struct {
	StopLossPercent     float64 // pérdida que fuerza cierre inmediato
	TrailingStopPercent float64 // caída desde el peak que dispara salida
	TrailingArmPercent  float64 // peak mínimo para armar el trailing stop
	ProfitTargetPercent float64
	TimeDecayDays       float64 // ventana pre-resolución para cortar pérdidas
	EdgeReversalMin     float64 // magnitud mínima del edge invertido
	LiquidityFloor      float64 // liquidez absoluta mínima del mercado
	MaxLiquidityShare   float64 // fracción de la liquidez que puede ocupar la posición
	ConfidenceDropPts   float64 // puntos de confianza perdidos desde la entrada
	LockProfitMinPct    float64 // ganancia mínima que merece asegurarse pre-resolución
	LockProfitDays      float64
	StalenessDays       float64
	StalePnLMaxPct      float64
}

func DefaultParams() Params {
	return Params{
		StopLossPercent:     0.20,
		TrailingStopPercent: 0.15,
		TrailingArmPercent:  0.10,
		ProfitTargetPercent: 0.25,
		TimeDecayDays:       3,
		EdgeReversalMin:     0.05,
		LiquidityFloor:      500,
		MaxLiquidityShare:   0.20,
		ConfidenceDropPts:   20,
		LockProfitMinPct:    0.05,
		LockProfitDays:      1,
		StalenessDays:       30,
		StalePnLMaxPct:      0.05,
	}
}

// MarketState es el snapshot de mercado contra el que se evalúa la posición.
// Edge y Confidence vienen del re-análisis del ciclo actual; HasReanalysis
// es false cuando el modelo no produjo señal para ese mercado esta vuelta.
type MarketState struct {
	CurrentPrice  float64
	Liquidity     float64
	Edge          float64
	Confidence    float64
	HasReanalysis bool
}

// Evaluator clasifica posiciones abiertas contra las condiciones de salida.
// No hay transiciones de estado: cada llamada re-evalúa desde cero con el
// snapshot actual, y solo el peak de P&L persiste entre llamadas.
type Evaluator struct {
	params Params
	peaks  *PeakTracker
	now    func() time.Time
}

func NewEvaluator(params Params, peaks *PeakTracker) *Evaluator {
	if peaks == nil {
		peaks = NewPeakTracker()
	}
	return &Evaluator{params: params, peaks: peaks, now: time.Now}
}

// Evaluate devuelve la recomendación para una posición abierta: la condición
// de mayor prioridad entre todas las que dispararon, o HOLD si ninguna lo hizo.
func (e *Evaluator) Evaluate(pos domain.Position, mkt MarketState) domain.ExitRecommendation {
	now := e.now()
	pnl := pos.PnLPercent(mkt.CurrentPrice)
	peak := e.peaks.Observe(pos.MarketID, pnl)

	var triggered []domain.ExitSignal
	add := func(reason domain.ExitReason, priority domain.ExitPriority, msg string) {
		triggered = append(triggered, domain.ExitSignal{
			Reason:     reason,
			Priority:   priority,
			Message:    msg,
			PnLPercent: pnl,
		})
	}

	// STOP_LOSS
	if pnl <= -e.params.StopLossPercent {
		add(domain.ExitStopLoss, domain.PriorityCritical,
			fmt.Sprintf("loss %.1f%% breached stop at -%.0f%%", pnl*100, e.params.StopLossPercent*100))
	}

	// TRAILING_STOP: solo armado una vez el peak supera el umbral de armado.
	if peak > e.params.TrailingArmPercent && peak-pnl >= e.params.TrailingStopPercent {
		add(domain.ExitTrailingStop, domain.PriorityHigh,
			fmt.Sprintf("dropped %.1f%% from peak %.1f%%", (peak-pnl)*100, peak*100))
	}

	// TIME_DECAY_LOSS: perdiendo con la resolución encima.
	daysLeft := pos.DaysToResolution(now)
	hasResolution := !pos.Resolution.IsZero()
	if hasResolution && daysLeft <= e.params.TimeDecayDays && pnl < 0 {
		add(domain.ExitTimeDecayLoss, domain.PriorityHigh,
			fmt.Sprintf("losing %.1f%% with %.1fd to resolution", pnl*100, daysLeft))
	}

	// EDGE_REVERSAL: el edge del re-análisis apunta contra nuestro lado.
	if mkt.HasReanalysis {
		reversed := (pos.PredictsYes() && mkt.Edge <= -e.params.EdgeReversalMin) ||
			(!pos.PredictsYes() && mkt.Edge >= e.params.EdgeReversalMin)
		if reversed {
			add(domain.ExitEdgeReversal, domain.PriorityHigh,
				fmt.Sprintf("edge flipped to %+.3f against %s side", mkt.Edge, pos.Side))
		}
	}

	// LIQUIDITY_DRY / POSITION_TOO_LARGE
	if mkt.Liquidity < e.params.LiquidityFloor {
		add(domain.ExitLiquidityDry, domain.PriorityHigh,
			fmt.Sprintf("liquidity $%.0f below floor $%.0f", mkt.Liquidity, e.params.LiquidityFloor))
	} else if mkt.Liquidity > 0 && pos.Size > mkt.Liquidity*e.params.MaxLiquidityShare {
		add(domain.ExitPositionTooLarge, domain.PriorityMedium,
			fmt.Sprintf("position %.0f exceeds %.0f%% of liquidity $%.0f",
				pos.Size, e.params.MaxLiquidityShare*100, mkt.Liquidity))
	}

	// PROFIT_TARGET
	if pnl >= e.params.ProfitTargetPercent {
		add(domain.ExitProfitTarget, domain.PriorityMedium,
			fmt.Sprintf("profit %.1f%% reached target %.0f%%", pnl*100, e.params.ProfitTargetPercent*100))
	}

	// CONFIDENCE_DROP
	if mkt.HasReanalysis && pos.EntryConfidence-mkt.Confidence >= e.params.ConfidenceDropPts {
		add(domain.ExitConfidenceDrop, domain.PriorityMedium,
			fmt.Sprintf("confidence fell %.0f pts since entry", pos.EntryConfidence-mkt.Confidence))
	}

	// LOCK_PROFIT_PRE_RESOLUTION: ganancia modesta que no merece el riesgo
	// de esperar al veredicto.
	if hasResolution && daysLeft <= e.params.LockProfitDays &&
		pnl >= e.params.LockProfitMinPct && pnl < e.params.ProfitTargetPercent {
		add(domain.ExitLockProfitPreRes, domain.PriorityMedium,
			fmt.Sprintf("lock %.1f%% with %.1fd to resolution", pnl*100, daysLeft))
	}

	// STALE_POSITION
	if pos.DaysHeld(now) > e.params.StalenessDays && pnl <= e.params.StalePnLMaxPct {
		add(domain.ExitStalePosition, domain.PriorityLow,
			fmt.Sprintf("held %.0fd going nowhere (%.1f%%)", pos.DaysHeld(now), pnl*100))
	}

	if len(triggered) == 0 {
		return domain.ExitRecommendation{
			MarketID:   pos.MarketID,
			Hold:       true,
			PnLPercent: pnl,
		}
	}

	domain.SortExitSignals(triggered)
	primary := triggered[0]
	return domain.ExitRecommendation{
		MarketID:   pos.MarketID,
		Primary:    primary,
		Urgency:    domain.UrgencyFor(primary.Priority),
		Triggered:  triggered,
		PnLPercent: pnl,
	}
}

// EvaluateAll evalúa todas las posiciones abiertas. Las posiciones sin
// snapshot de mercado se saltan: sin precio actual no hay nada que clasificar.
func (e *Evaluator) EvaluateAll(positions []domain.Position, states map[string]MarketState) []domain.ExitRecommendation {
	recs := make([]domain.ExitRecommendation, 0, len(positions))
	for _, pos := range positions {
		mkt, ok := states[pos.MarketID]
		if !ok {
			continue
		}
		recs = append(recs, e.Evaluate(pos, mkt))
	}
	return recs
}

// PositionClosed libera el peak de una posición cerrada.
func (e *Evaluator) PositionClosed(marketID string) {
	e.peaks.Forget(marketID)
}

// Exits filtra las recomendaciones que no son HOLD.
func Exits(recs []domain.ExitRecommendation) []domain.ExitRecommendation {
	var out []domain.ExitRecommendation
	for _, r := range recs {
		if !r.Hold {
			out = append(out, r)
		}
	}
	return out
}
