package domain

import "sort"

// ExitReason identifica la condición de salida que disparó una señal.
type ExitReason string

const (
	ExitStopLoss         ExitReason = "STOP_LOSS"
	ExitTrailingStop     ExitReason = "TRAILING_STOP"
	ExitTimeDecayLoss    ExitReason = "TIME_DECAY_LOSS"
	ExitEdgeReversal     ExitReason = "EDGE_REVERSAL"
	ExitLiquidityDry     ExitReason = "LIQUIDITY_DRY"
	ExitPositionTooLarge ExitReason = "POSITION_TOO_LARGE"
	ExitProfitTarget     ExitReason = "PROFIT_TARGET"
	ExitConfidenceDrop   ExitReason = "CONFIDENCE_DROP"
	ExitLockProfitPreRes ExitReason = "LOCK_PROFIT_PRE_RESOLUTION"
	ExitStalePosition    ExitReason = "STALE_POSITION"
)

// ExitPriority ordena las condiciones de salida. Valores menores = más urgente.
type ExitPriority int

const (
	PriorityCritical ExitPriority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

func (p ExitPriority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// Urgency indica cuándo debe actuarse sobre la recomendación.
type Urgency string

const (
	UrgencyImmediate      Urgency = "IMMEDIATE"
	UrgencyToday          Urgency = "TODAY"
	UrgencyWhenConvenient Urgency = "WHEN_CONVENIENT"
)

// UrgencyFor mapea prioridad → urgencia de ejecución.
func UrgencyFor(p ExitPriority) Urgency {
	switch p {
	case PriorityCritical:
		return UrgencyImmediate
	case PriorityHigh:
		return UrgencyToday
	default:
		return UrgencyWhenConvenient
	}
}

// ExitSignal es una condición de salida disparada para una posición.
// Derivada por evaluación; este componente no la persiste.
type ExitSignal struct {
	Reason     ExitReason
	Priority   ExitPriority
	Message    string
	PnLPercent float64
}

// ExitRecommendation es el veredicto agregado para una posición abierta:
// la condición de mayor prioridad manda, el resto queda como contexto.
type ExitRecommendation struct {
	MarketID   string
	Hold       bool // true si ninguna condición disparó
	Primary    ExitSignal
	Urgency    Urgency
	Triggered  []ExitSignal // todas las condiciones, ordenadas por prioridad
	PnLPercent float64
}

// SortExitSignals ordena por prioridad ascendente (critical primero).
// El orden entre señales de la misma prioridad es estable.
func SortExitSignals(signals []ExitSignal) {
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Priority < signals[j].Priority
	})
}
