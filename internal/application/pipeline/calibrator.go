package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/ports"
)

// Calibrator aplica la calibración adaptativa consultando el history
// collaborator. Fail-open: si la historia no está disponible, la señal sigue
// adelante sin calibrar — la calibración nunca bloquea la generación de señales.
type Calibrator struct {
	history ports.OutcomeHistory
	params  domain.CalibrationParams
	now     func() time.Time
}

// NewCalibrator crea un Calibrator. history puede ser nil (modo sin historia:
// todo pasa sin calibrar con status degraded).
func NewCalibrator(history ports.OutcomeHistory, params domain.CalibrationParams) *Calibrator {
	return &Calibrator{
		history: history,
		params:  params,
		now:     time.Now,
	}
}

// Calibrate ajusta edge/confianza de la señal contra la ventana de records
// resueltos de su categoría+acción. Nunca devuelve error: los modos
// degradados se señalan en CalibrationResult.Status.
func (c *Calibrator) Calibrate(ctx context.Context, sig domain.MarketSignal) domain.CalibrationResult {
	degraded := domain.CalibrationResult{
		Edge:       sig.Edge,
		Confidence: sig.Confidence,
		Status:     domain.CalibrationDegraded,
	}
	if c.history == nil {
		return degraded
	}

	since := c.now().AddDate(0, 0, -c.params.WindowDays)
	records, err := c.history.FetchOutcomes(ctx, sig.Category, sig.Action, since)
	if err != nil {
		// Fail-open: historia caída → señal sin calibrar, nunca un error
		// hacia el caller.
		slog.Warn("outcome history unavailable, skipping calibration",
			"market", sig.MarketID,
			"category", sig.Category,
			"err", err,
		)
		return degraded
	}

	return domain.Calibrate(sig.Edge, sig.Confidence, records, c.params)
}
