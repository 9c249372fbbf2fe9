package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// CycleReport agrupa la salida completa de un ciclo de análisis.
type CycleReport struct {
	Recommendations []domain.Recommendation
	Arbitrages      []domain.ArbOpportunity
	Exits           []domain.ExitRecommendation
}

// Notifier presenta los resultados del ciclo al usuario.
type Notifier interface {
	// Notify muestra recomendaciones, arbitrajes y salidas del ciclo.
	// En la implementación de consola, imprime tablas formateadas.
	Notify(ctx context.Context, report CycleReport) error
}
