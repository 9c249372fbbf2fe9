package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// MarketProvider es el collaborator de datos de mercado: entrega candidatos
// con forma de MarketSignal (id, pregunta, precios, liquidez, categoría,
// fecha de resolución, probabilidad del modelo). El core nunca hace fetch
// por su cuenta.
type MarketProvider interface {
	// FetchCandidates devuelve las señales crudas (sin calibrar) del ciclo.
	FetchCandidates(ctx context.Context) ([]domain.MarketSignal, error)
}
