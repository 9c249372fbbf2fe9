package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeRecords genera n records resueltos con la fracción correcta indicada.
func makeRecords(n int, correctFrac float64, action Action) []OutcomeRecord {
	records := make([]OutcomeRecord, n)
	correct := int(correctFrac * float64(n))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		outcome := OutcomeNo
		if action.PredictsYes() {
			outcome = OutcomeYes
		}
		if i >= correct {
			// resultado contrario a la predicción
			if outcome == OutcomeYes {
				outcome = OutcomeNo
			} else {
				outcome = OutcomeYes
			}
		}
		records[i] = OutcomeRecord{
			ID:         fmt.Sprintf("r%d", i),
			Action:     action,
			EmittedAt:  base.Add(time.Duration(i) * time.Hour),
			Outcome:    outcome,
			ResolvedAt: base.Add(time.Duration(i+24) * time.Hour),
		}
	}
	return records
}

func calParams() CalibrationParams { return DefaultCalibrationParams() }

func TestCalibrate_InsufficientData(t *testing.T) {
	records := makeRecords(10, 0.5, ActionBuyYes)
	res := Calibrate(0.10, 70, records, calParams())

	assert.Equal(t, CalibrationInsufficientData, res.Status)
	assert.Equal(t, 0.10, res.Edge)
	assert.Equal(t, 70.0, res.Confidence)
	assert.Equal(t, 0.0, res.LearningFactor)
	assert.Equal(t, 10, res.SampleCount)
}

func TestCalibrate_IgnoresUnresolved(t *testing.T) {
	// 30 records pero ninguno resuelto → insuficiente
	records := make([]OutcomeRecord, 30)
	for i := range records {
		records[i] = OutcomeRecord{Action: ActionBuyYes}
	}
	res := Calibrate(0.10, 70, records, calParams())
	assert.Equal(t, CalibrationInsufficientData, res.Status)
	assert.Equal(t, 0, res.SampleCount)
}

func TestCalibrate_OverconfidentShrinks(t *testing.T) {
	// Confianza 80 pero accuracy real 40% → accErr = -0.40 → encoger
	records := makeRecords(40, 0.40, ActionBuyYes)
	res := Calibrate(0.10, 80, records, calParams())

	require.Equal(t, CalibrationApplied, res.Status)
	assert.InDelta(t, 0.40, res.ActualAccuracy, 1e-9)
	assert.InDelta(t, -0.40, res.AccuracyError, 1e-9)
	assert.Less(t, res.Confidence, 80.0)
	assert.Less(t, res.Edge, 0.10)
	// Nunca invierte el signo
	assert.Greater(t, res.Edge, 0.0)
}

func TestCalibrate_UnderconfidentGrowsConservatively(t *testing.T) {
	// Confianza 50 pero accuracy 80% → accErr = +0.30 → crecer
	records := makeRecords(40, 0.80, ActionBuyYes)
	res := Calibrate(0.10, 50, records, calParams())

	require.Equal(t, CalibrationApplied, res.Status)
	assert.Greater(t, res.Confidence, 50.0)
	assert.Greater(t, res.Edge, 0.10)

	// Asimetría: el mismo error en sobreconfianza encoge más de lo que
	// este crecimiento amplía
	over := Calibrate(0.10, 80, makeRecords(40, 0.50, ActionBuyYes), calParams())
	shrink := 0.10 - over.Edge
	grow := res.Edge - 0.10
	assert.Greater(t, shrink, grow)
}

func TestCalibrate_DeadZoneNoAdjustment(t *testing.T) {
	// accErr = 0.75 - 0.70 = +0.05, dentro de la banda ±0.1 → sin cambios
	records := makeRecords(40, 0.75, ActionBuyYes)
	res := Calibrate(0.10, 70, records, calParams())

	assert.Equal(t, CalibrationApplied, res.Status)
	assert.Equal(t, 0.10, res.Edge)
	assert.Equal(t, 70.0, res.Confidence)
}

func TestCalibrate_ConfidenceAlwaysInRange(t *testing.T) {
	// Propiedad §: ∀ inputs, la confianza de salida ∈ [0,100]
	cases := []struct {
		conf float64
		acc  float64
	}{
		{0, 0.9}, {100, 0.1}, {150, 0.5}, {-20, 0.5}, {99, 1.0}, {1, 0.0},
	}
	for _, c := range cases {
		res := Calibrate(0.10, c.conf, makeRecords(50, c.acc, ActionBuyYes), calParams())
		assert.GreaterOrEqual(t, res.Confidence, 0.0, "conf=%v acc=%v", c.conf, c.acc)
		assert.LessOrEqual(t, res.Confidence, 100.0, "conf=%v acc=%v", c.conf, c.acc)
	}
}

func TestCalibrate_EdgeSignPreserved(t *testing.T) {
	// Sobreconfianza extrema con edge negativo (BUY_NO): encoge, no cruza cero
	records := makeRecords(100, 0.0, ActionBuyNo)
	res := Calibrate(-0.15, 95, records, calParams())
	assert.Less(t, res.Edge, 0.0)
	assert.Greater(t, res.Edge, -0.15)
}

func TestCalibrate_DirectionFromActionNotEdgeSign(t *testing.T) {
	// Records BUY_NO con edge positivo registrado: la dirección predicha es
	// NO (por la acción), así que resolver NO cuenta como acierto.
	records := makeRecords(30, 1.0, ActionBuyNo)
	for i := range records {
		records[i].Edge = 0.10 // signo "en desacuerdo" con la acción
	}
	res := Calibrate(-0.08, 50, records, calParams())
	require.Equal(t, CalibrationApplied, res.Status)
	assert.InDelta(t, 1.0, res.ActualAccuracy, 1e-9)
}

func TestCalibrate_CapsAtMaxRecords(t *testing.T) {
	p := calParams()
	p.MaxRecords = 50
	records := makeRecords(120, 0.5, ActionBuyYes)
	res := Calibrate(0.10, 50, records, p)
	assert.Equal(t, 50, res.SampleCount)
}

func TestCalibrate_LearningFactorBoundedByRate(t *testing.T) {
	records := makeRecords(500, 0.2, ActionBuyYes)
	res := Calibrate(0.10, 90, records, calParams())
	assert.LessOrEqual(t, res.LearningFactor, calParams().LearningRate)
	assert.Greater(t, res.LearningFactor, 0.0)
}
