package domain

import "time"

// RejectReason clasifica por qué el pipeline descartó un candidato.
type RejectReason string

const (
	RejectNone   RejectReason = ""
	RejectTime   RejectReason = "REJECT_TIME"
	RejectEdge   RejectReason = "REJECT_EDGE"
	RejectTiming RejectReason = "REJECT_TIMING"
	RejectSize   RejectReason = "REJECT_SIZE" // el sizer devolvió 0
)

// Recommendation es la salida final del pipeline de decisión para un
// candidato: o una entrada dimensionada o un rechazo tipificado, siempre con
// el rastro completo de cómo se llegó al número.
type Recommendation struct {
	ID          string
	GeneratedAt time.Time

	Signal MarketSignal // con edge/confianza ya calibrados

	// Valores antes de calibrar, para auditoría.
	RawEdge       float64
	RawConfidence float64

	Calibration CalibrationResult
	Time        TimeAdjustment
	KellyBase   float64 // tamaño del sizer antes de ajustes
	FinalSize   float64 // tras pesado temporal y correlación

	Accepted bool
	Reject   RejectReason
}

// RejectReasonFromDecision mapea el veredicto temporal a un motivo de rechazo.
func RejectReasonFromDecision(d TimeDecision) RejectReason {
	switch d {
	case DecisionRejectTime:
		return RejectTime
	case DecisionRejectEdge:
		return RejectEdge
	case DecisionRejectTiming:
		return RejectTiming
	default:
		return RejectNone
	}
}
