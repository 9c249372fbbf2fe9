package domain

// calibration.go — calibración adaptativa de edge/confianza.
//
// Compara la confianza declarada del modelo con su accuracy real sobre una
// ventana de señales resueltas (misma categoría y acción) y ajusta edge y
// confianza en consecuencia. La calibración es consultiva: nunca bloquea una
// señal por falta de historia.

import (
	"math"
	"sort"
)

// CalibrationStatus distingue "ajuste aplicado" de los modos degradados,
// para que el caller sepa si está operando con valores calibrados.
type CalibrationStatus string

const (
	CalibrationApplied CalibrationStatus = "applied"
	// CalibrationInsufficientData: menos muestras que el mínimo → inputs intactos.
	CalibrationInsufficientData CalibrationStatus = "insufficient_data"
	// CalibrationDegraded: el history collaborator falló → fail-open con inputs intactos.
	CalibrationDegraded CalibrationStatus = "degraded"
)

// CalibrationParams parametriza la calibración. Todo overridable por config.
type CalibrationParams struct {
	WindowDays int // ventana trailing de records (default 30)
	MaxRecords int // cap de records más recientes (default 100)
	MinSamples int // mínimo para ajustar (default 20)
	// LearningRate acota el ajuste máximo: learningFactor nunca lo supera.
	LearningRate float64
	// DeadZone: |accuracyError| dentro de esta banda no se ajusta (default 0.1).
	DeadZone float64
	// Coeficientes de sobreconfianza (shrink) — más agresivos que los de
	// infraconfianza: encoger ante el ruido es barato, amplificarlo no.
	OverconfConfCoef float64
	OverconfEdgeCoef float64
	// Coeficientes de infraconfianza (grow), deliberadamente conservadores.
	UnderconfConfCoef float64
	UnderconfEdgeCoef float64
}

// DefaultCalibrationParams devuelve la parametrización estándar.
func DefaultCalibrationParams() CalibrationParams {
	return CalibrationParams{
		WindowDays:        30,
		MaxRecords:        100,
		MinSamples:        20,
		LearningRate:      0.3,
		DeadZone:          0.1,
		OverconfConfCoef:  1.0,
		OverconfEdgeCoef:  0.8,
		UnderconfConfCoef: 0.5,
		UnderconfEdgeCoef: 0.3,
	}
}

// CalibrationResult es el edge/confianza ajustados más el diagnóstico.
type CalibrationResult struct {
	Edge           float64
	Confidence     float64
	Status         CalibrationStatus
	LearningFactor float64
	SampleCount    int
	ActualAccuracy float64
	AccuracyError  float64
}

// Calibrate ajusta un par edge/confianza crudo contra la ventana de records
// resueltos. Los records sin resolver se ignoran; si quedan más de MaxRecords
// se usan los más recientes.
//
// La dirección predicha de cada record sale de su Action
// (Action.PredictsYes), nunca del signo del edge registrado.
//
// Invariante: el ajuste es multiplicativo con factor acotado a [0.1, ∞) —
// el edge ajustado puede encogerse pero jamás cruza cero. La confianza de
// salida queda en [0, 100].
func Calibrate(edge, confidence float64, records []OutcomeRecord, p CalibrationParams) CalibrationResult {
	unchanged := CalibrationResult{
		Edge:       edge,
		Confidence: clampConfidence(confidence),
		Status:     CalibrationInsufficientData,
	}

	resolved := make([]OutcomeRecord, 0, len(records))
	for _, r := range records {
		if r.Resolved() {
			resolved = append(resolved, r)
		}
	}
	if len(resolved) > p.MaxRecords && p.MaxRecords > 0 {
		sort.Slice(resolved, func(i, j int) bool {
			return resolved[i].EmittedAt.After(resolved[j].EmittedAt)
		})
		resolved = resolved[:p.MaxRecords]
	}

	n := len(resolved)
	unchanged.SampleCount = n
	if n < p.MinSamples || p.MinSamples <= 0 {
		return unchanged
	}

	correct := 0
	for _, r := range resolved {
		if r.PredictionCorrect() {
			correct++
		}
	}
	accuracy := float64(correct) / float64(n)
	accErr := accuracy - confidence/100.0

	factor := math.Min(1, float64(n)/float64(p.MinSamples)) * p.LearningRate

	res := CalibrationResult{
		Edge:           edge,
		Confidence:     clampConfidence(confidence),
		Status:         CalibrationApplied,
		LearningFactor: factor,
		SampleCount:    n,
		ActualAccuracy: accuracy,
		AccuracyError:  accErr,
	}

	switch {
	case accErr < -p.DeadZone:
		// Sobreconfiado: encoger confianza y magnitud del edge.
		res.Confidence = clampConfidence(confidence * signSafeMult(accErr*p.OverconfConfCoef*factor))
		res.Edge = edge * signSafeMult(accErr*p.OverconfEdgeCoef*factor)
	case accErr > p.DeadZone:
		// Infraconfiado: crecer, con coeficientes más tímidos.
		res.Confidence = clampConfidence(confidence * (1 + accErr*p.UnderconfConfCoef*factor))
		res.Edge = edge * (1 + accErr*p.UnderconfEdgeCoef*factor)
	}

	return res
}

// signSafeMult convierte un delta en multiplicador acotado por abajo a 0.1:
// el ajuste puede dejar el edge en el 10% de su valor, nunca invertir su signo.
func signSafeMult(delta float64) float64 {
	m := 1 + delta
	if m < 0.1 {
		return 0.1
	}
	return m
}

func clampConfidence(c float64) float64 {
	if c < 0 || math.IsNaN(c) {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
