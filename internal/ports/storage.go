package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Storage persiste los resultados de cada ciclo de análisis.
type Storage interface {
	// SaveCycle persiste las recomendaciones aceptadas de un ciclo.
	SaveCycle(ctx context.Context, recs []domain.Recommendation) error

	// GetRecommendations devuelve recomendaciones registradas en el rango dado.
	GetRecommendations(ctx context.Context, from, to time.Time) ([]domain.Recommendation, error)

	// Close cierra la conexión limpiamente.
	Close() error
}
