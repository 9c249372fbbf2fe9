package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// PositionStore es el collaborator de posiciones abiertas. La ejecución de
// trades vive fuera del core: aquí solo se leen posiciones y se entregan
// recomendaciones de salida para que el downstream actúe.
type PositionStore interface {
	// OpenPositions devuelve las posiciones actualmente abiertas.
	OpenPositions(ctx context.Context) ([]domain.Position, error)

	// SubmitExits entrega las recomendaciones de salida del ciclo.
	SubmitExits(ctx context.Context, recs []domain.ExitRecommendation) error
}
